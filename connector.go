package cassmfa

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/att/cassandra-mfa-go/auth"
	"github.com/att/cassandra-mfa-go/auth/azuread"
	"github.com/att/cassandra-mfa-go/driverctx"
	"github.com/att/cassandra-mfa-go/internal/client"
	"github.com/att/cassandra-mfa-go/internal/config"
	cmfaerrint "github.com/att/cassandra-mfa-go/internal/errors"
	"github.com/att/cassandra-mfa-go/logger"
	"github.com/gocql/gocql"
)

type connector struct {
	cfg      *config.Config
	provider auth.Provider
}

// newConnector materializes the TLS config and builds the token cache shared
// by every connection of this connector.
func newConnector(cfg *config.Config) (*connector, error) {
	if cfg.SSLEnabled && cfg.TLSConfig == nil {
		tlsConfig, err := config.TLSConfigFromCA(cfg.CACertPath)
		if err != nil {
			return nil, cmfaerrint.NewRequestError(context.Background(), cmfaerrint.ErrInvalidCACert, err)
		}
		cfg.TLSConfig = tlsConfig
	}

	tokens := azuread.NewTokenCache(azuread.Credential{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
	})

	return &connector{
		cfg:      cfg,
		provider: auth.NewBearerProvider(tokens),
	}, nil
}

// Connect opens one authenticated session to the cluster. The handshake may
// block on a token refresh, including identity provider round trips.
func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	connId := gocql.TimeUUID().String()
	ctx = driverctx.NewContextWithConnId(ctx, connId)
	log := logger.WithContext(ctx)

	log.Debug().Msgf("connecting to %s:%d in datacenter %s", c.cfg.Host, c.cfg.Port, c.cfg.LocalDC)
	session, err := client.OpenSession(ctx, c.cfg, c.provider)
	if err != nil {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrSessionCreate, err)
	}

	log.Debug().Msg("session established")
	return &conn{
		id:      connId,
		cfg:     c.cfg,
		session: session,
	}, nil
}

func (c *connector) Driver() driver.Driver {
	return &cassMfaDriver{}
}

var _ driver.Connector = (*connector)(nil)

// ConnOption configures a connector built with NewConnector.
type ConnOption func(*config.Config)

// WithContactPoint sets the initial cluster contact point.
func WithContactPoint(host string, port int) ConnOption {
	return func(c *config.Config) {
		c.Host = host
		c.Port = port
	}
}

// WithLocalDatacenter sets the datacenter used for DC aware routing.
func WithLocalDatacenter(dc string) ConnOption {
	return func(c *config.Config) {
		c.LocalDC = dc
	}
}

// WithClientCredentials sets the Azure AD client-credentials inputs used to
// mint bearer tokens.
func WithClientCredentials(tenantId, clientId, clientSecret, scope string) ConnOption {
	return func(c *config.Config) {
		c.TenantID = tenantId
		c.ClientID = clientId
		c.ClientSecret = clientSecret
		c.Scope = scope
	}
}

// WithSSL enables TLS towards the cluster, trusting the CAs in the given PEM bundle.
func WithSSL(caCertPath string) ConnOption {
	return func(c *config.Config) {
		c.SSLEnabled = true
		c.CACertPath = caCertPath
	}
}

// WithConnectTimeout sets the per connection dial and handshake timeout.
func WithConnectTimeout(timeout time.Duration) ConnOption {
	return func(c *config.Config) {
		c.ConnectTimeout = timeout
	}
}

// NewConnector creates a connection factory for use with sql.OpenDB. This is
// the explicit-construction alternative to DSN based sql.Open; no global
// registration is involved.
func NewConnector(options ...ConnOption) (driver.Connector, error) {
	cfg := config.WithDefaults()
	for _, opt := range options {
		opt(cfg)
	}

	ctx := context.Background()
	if cfg.Host == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNHost, nil)
	}
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.Scope == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrMissingCredential, nil)
	}
	if cfg.LocalDC == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrMissingLocalDC, nil)
	}

	c, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
