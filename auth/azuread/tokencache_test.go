package azuread

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	cmfaerr "github.com/att/cassandra-mfa-go/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testCred = Credential{
	TenantID:     "test-tenant",
	ClientID:     "test-client",
	ClientSecret: "super-secret-value",
	Scope:        "api://test-app/.default",
}

// fakeIdentityClient scripts RequestToken responses and counts invocations.
type fakeIdentityClient struct {
	calls int32
	fetch func(call int32) (*Token, error)
	delay time.Duration
}

func (f *fakeIdentityClient) RequestToken(ctx context.Context) (*Token, error) {
	call := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.fetch(call)
}

func (f *fakeIdentityClient) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

func newTestCache(client IdentityClient, opts ...Option) *TokenCache {
	base := []Option{
		WithIdentityClient(client),
		WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	}
	return NewTokenCache(testCred, append(base, opts...)...)
}

func TestTokenCache_ReusesCachedToken(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return &Token{Value: "token-1", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}
	cache := newTestCache(client)

	first, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	second, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), client.callCount())
}

func TestTokenCache_ProactiveRefreshWithinSkew(t *testing.T) {
	// expires in 1 minute, skew is 2 minutes: expiring soon on the next call
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			if call == 1 {
				return &Token{Value: "short-lived", ExpiresAt: time.Now().Add(1 * time.Minute)}, nil
			}
			return &Token{Value: "refreshed", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}
	cache := newTestCache(client)

	first, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short-lived", first)

	second, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", second)
	assert.Equal(t, int32(2), client.callCount())

	// refreshed token is now cached, no further invocations
	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), client.callCount())
}

func TestTokenCache_TokenWithoutExpiryForcesRefresh(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return &Token{Value: "no-expiry"}, nil
		},
	}
	cache := newTestCache(client)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	_, err = cache.GetToken(context.Background())
	require.NoError(t, err)

	// fail-safe default: a token with no expiry is never reused
	assert.Equal(t, int32(2), client.callCount())
}

func TestTokenCache_SingleFlightUnderContention(t *testing.T) {
	client := &fakeIdentityClient{
		delay: 20 * time.Millisecond,
		fetch: func(call int32) (*Token, error) {
			return &Token{Value: "shared-token", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}
	cache := newTestCache(client)

	const callers = 25
	results := make([]string, callers)

	var eg errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		eg.Go(func() error {
			value, err := cache.GetToken(context.Background())
			results[i] = value
			return err
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, int32(1), client.callCount())
	for _, value := range results {
		assert.Equal(t, "shared-token", value)
	}
}

func TestTokenCache_RetryThenSuccess(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			if call < 3 {
				return nil, errors.New("identity provider unavailable")
			}
			return &Token{Value: "third-time-lucky", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}

	var delays []time.Duration
	cache := NewTokenCache(testCred,
		WithIdentityClient(client),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
	)

	value, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "third-time-lucky", value)
	assert.Equal(t, int32(3), client.callCount())

	// linear backoff: base, then 2x base
	require.Len(t, delays, 2)
	assert.Equal(t, defaultBackoff, delays[0])
	assert.Equal(t, 2*defaultBackoff, delays[1])
}

func TestTokenCache_RetryExhaustion(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return nil, errors.New("identity provider unavailable")
		},
	}
	cache := newTestCache(client)

	_, err := cache.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmfaerr.ExhaustedRetriesError))
	// the last underlying cause stays in the chain for diagnostics
	assert.True(t, errors.Is(err, cmfaerr.TransientAuthError))
	assert.Equal(t, int32(3), client.callCount())

	var authErr cmfaerr.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "test-tenant", authErr.TenantId())
	assert.Equal(t, "test-client", authErr.ClientId())

	// identifiers may surface, the secret never does
	assert.False(t, strings.Contains(err.Error(), testCred.ClientSecret))

	// the cache is not poisoned: a later call starts from scratch and succeeds
	client.fetch = func(call int32) (*Token, error) {
		return &Token{Value: "recovered", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
	}
	value, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", value)
}

func TestTokenCache_EmptyTokenValueIsRetried(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			if call == 1 {
				return &Token{Value: "", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
			}
			return &Token{Value: "usable", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}
	cache := newTestCache(client)

	value, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "usable", value)
	assert.Equal(t, int32(2), client.callCount())
}

func TestTokenCache_AllResponsesMalformed(t *testing.T) {
	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return &Token{}, nil
		},
	}
	cache := newTestCache(client)

	_, err := cache.GetToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmfaerr.ExhaustedRetriesError))
	assert.True(t, errors.Is(err, cmfaerr.MalformedTokenError))
}

func TestTokenCache_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return nil, errors.New("identity provider unavailable")
		},
	}
	// real context aware sleep with a backoff long enough that only
	// cancellation can unblock it promptly
	cache := NewTokenCache(testCred,
		WithIdentityClient(client),
		WithRetryPolicy(3, 1*time.Hour),
	)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := cache.GetToken(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmfaerr.CancelledError))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), client.callCount())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestTokenCache_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeIdentityClient{
		fetch: func(call int32) (*Token, error) {
			return &Token{Value: "never-used", ExpiresAt: time.Now().Add(1 * time.Hour)}, nil
		},
	}
	cache := newTestCache(client)

	_, err := cache.GetToken(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmfaerr.CancelledError))
	assert.Equal(t, int32(0), client.callCount())
}

func TestTokenCache_ExpiringSoonBoundary(t *testing.T) {
	base := time.Now()
	cache := NewTokenCache(testCred, WithClock(func() time.Time { return base }))

	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{name: "no_expiry", expiresAt: time.Time{}, expected: true},
		{name: "already_expired", expiresAt: base.Add(-1 * time.Minute), expected: true},
		{name: "inside_skew_window", expiresAt: base.Add(1 * time.Minute), expected: true},
		{name: "exactly_at_skew", expiresAt: base.Add(defaultSkew), expected: true},
		{name: "beyond_skew_window", expiresAt: base.Add(defaultSkew + time.Second), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &Token{Value: "v", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, cache.expiringSoon(token))
		})
	}
}
