package azuread

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	cmfaerrint "github.com/att/cassandra-mfa-go/internal/errors"
	"github.com/att/cassandra-mfa-go/logger"
)

const (
	// refresh this long before the token actually expires. Must stay below the
	// shortest token lifetime Azure AD issues or every call would refresh.
	defaultSkew = 2 * time.Minute

	defaultMaxAttempts = 3
	defaultBackoff     = 1 * time.Second
)

// TokenCache acquires bearer tokens via the client-credentials flow and caches
// them for reuse across connections. A token is refreshed proactively once it
// is within the skew window of its expiry, with bounded retries and linear
// backoff on identity provider failures.
//
// One instance is typically shared by all connections of a session. Reads of a
// valid cached token are lock free; at most one refresh is in flight at a time.
type TokenCache struct {
	client   IdentityClient
	cred     Credential
	tenantId string
	clientId string

	skew        time.Duration
	maxAttempts int
	backoff     time.Duration

	// injectable for deterministic tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	token atomic.Pointer[Token]
}

// Option configures a TokenCache.
type Option func(*TokenCache)

// WithSkew overrides the expiring-soon safety margin.
func WithSkew(skew time.Duration) Option {
	return func(c *TokenCache) {
		c.skew = skew
	}
}

// WithRetryPolicy overrides the attempt cap and the backoff base. The delay
// before attempt n+1 is backoff * n.
func WithRetryPolicy(maxAttempts int, backoff time.Duration) Option {
	return func(c *TokenCache) {
		c.maxAttempts = maxAttempts
		c.backoff = backoff
	}
}

// WithAuthority overrides the Azure AD login endpoint, e.g. for sovereign
// clouds or a local test server.
func WithAuthority(authority string) Option {
	return func(c *TokenCache) {
		c.client = newIdentityClient(authority, c.cred)
	}
}

// WithIdentityClient substitutes the identity provider client entirely.
func WithIdentityClient(client IdentityClient) Option {
	return func(c *TokenCache) {
		c.client = client
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) {
		c.now = now
	}
}

// WithSleep overrides the backoff sleep. The function must honor ctx
// cancellation and return its error.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *TokenCache) {
		c.sleep = sleep
	}
}

// NewTokenCache creates an empty cache for the given credential. The first
// GetToken call populates it.
func NewTokenCache(cred Credential, opts ...Option) *TokenCache {
	c := &TokenCache{
		client:      newIdentityClient(DefaultAuthority, cred),
		cred:        cred,
		tenantId:    cred.TenantID,
		clientId:    cred.ClientID,
		skew:        defaultSkew,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		now:         time.Now,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetToken returns a currently valid token value, refreshing the cache if the
// cached token is absent or expiring soon. It blocks for the duration of the
// refresh, including retry backoff, and fails with an authentication error
// once retries are exhausted or the context is cancelled.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	// fast path: no locking for the overwhelmingly common case
	if t := c.token.Load(); t != nil && !c.expiringSoon(t) {
		return t.Value, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// re-check under the lock: a concurrent caller may have just refreshed
	if t := c.token.Load(); t != nil && !c.expiringSoon(t) {
		return t.Value, nil
	}

	t, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}
	return t.Value, nil
}

// expiringSoon reports whether the token is past its expiry minus skew.
// A token without an expiry is treated as already expired.
func (c *TokenCache) expiringSoon(t *Token) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !c.now().Before(t.ExpiresAt.Add(-c.skew))
}

// refresh fetches a new token with bounded retries and replaces the cached
// token on success. Called with c.mu held. On failure the cache is left
// unchanged, never holding a partial token.
func (c *TokenCache) refresh(ctx context.Context) (*Token, error) {
	log := logger.WithContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, cmfaerrint.NewCancelledError(ctx, c.tenantId, c.clientId, ctx.Err())
		}

		log.Debug().Msgf("azuread: requesting token for client %s (attempt %d/%d)", c.clientId, attempt, c.maxAttempts)
		t, err := c.client.RequestToken(ctx)
		if err == nil {
			if t == nil || t.Value == "" {
				// provider responded but without a usable token; retryable
				err = cmfaerrint.NewMalformedTokenError(ctx, c.tenantId, c.clientId)
			} else {
				log.Debug().Time("expiresAt", t.ExpiresAt).Msg("azuread: token acquired")
				c.token.Store(t)
				return t, nil
			}
		} else {
			if ctx.Err() != nil {
				// the provider call was aborted by cancellation, not by the provider
				return nil, cmfaerrint.NewCancelledError(ctx, c.tenantId, c.clientId, ctx.Err())
			}
			err = cmfaerrint.NewTransientAuthError(ctx, c.tenantId, c.clientId, err)
		}

		lastErr = err
		log.Warn().Msgf("azuread: token request failed (attempt %d/%d): %v", attempt, c.maxAttempts, err)

		if attempt < c.maxAttempts {
			if sleepErr := c.sleep(ctx, time.Duration(attempt)*c.backoff); sleepErr != nil {
				return nil, cmfaerrint.NewCancelledError(ctx, c.tenantId, c.clientId, sleepErr)
			}
		}
	}

	return nil, cmfaerrint.NewExhaustedRetriesError(ctx, c.tenantId, c.clientId, c.maxAttempts, lastErr)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
