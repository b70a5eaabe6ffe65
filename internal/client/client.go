package client

import (
	"context"
	"time"

	"github.com/att/cassandra-mfa-go/auth"
	"github.com/att/cassandra-mfa-go/internal/config"
	"github.com/att/cassandra-mfa-go/logger"
	"github.com/gocql/gocql"
)

// OpenSession builds a Cassandra session for the given config, authenticating
// every connection through a fresh authenticator minted by the provider. Query
// execution, routing and transport details are entirely gocql's concern; this
// driver only wires in the credential supplier.
func OpenSession(ctx context.Context, cfg *config.Config, provider auth.Provider) (*gocql.Session, error) {
	log := logger.WithContext(ctx)
	log.Debug().Msgf("client: building session for %s", cfg.Sanitized())

	cluster := gocql.NewCluster(cfg.Host)
	cluster.Port = cfg.Port
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.ConnectTimeout
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
		gocql.DCAwareRoundRobinPolicy(cfg.LocalDC),
	)
	cluster.AuthProvider = func(h *gocql.HostInfo) (gocql.Authenticator, error) {
		return &saslAdapter{
			auth:    provider.NewAuthenticator(),
			timeout: cfg.ConnectTimeout,
		}, nil
	}
	if cfg.TLSConfig != nil {
		cluster.SslOpts = &gocql.SslOptions{Config: cfg.TLSConfig}
	}

	return cluster.CreateSession()
}

// saslAdapter translates the driver's three-operation handshake contract onto
// gocql's challenge/success shape. gocql issues the first Challenge call with
// the server authenticator's class name, which maps to the initial response;
// any later call is a real server challenge.
type saslAdapter struct {
	auth    auth.Authenticator
	timeout time.Duration
	started bool
}

var _ gocql.Authenticator = (*saslAdapter)(nil)

func (a *saslAdapter) Challenge(req []byte) ([]byte, gocql.Authenticator, error) {
	if !a.started {
		a.started = true

		ctx := context.Background()
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		resp, err := a.auth.InitialResponse(ctx)
		if err != nil {
			return nil, nil, err
		}
		return resp, a, nil
	}

	resp, err := a.auth.EvaluateChallenge(req)
	if err != nil {
		return nil, nil, err
	}
	return resp, a, nil
}

func (a *saslAdapter) Success(data []byte) error {
	a.auth.OnSuccess(data)
	return nil
}
