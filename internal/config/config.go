package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	cmfaerrint "github.com/att/cassandra-mfa-go/internal/errors"
)

const DSNScheme = "cassandra-mfa"

type Config struct {
	Host    string
	Port    int
	LocalDC string

	// Azure AD client-credentials inputs. ClientSecret is never logged.
	TenantID     string
	ClientID     string
	ClientSecret string
	Scope        string

	SSLEnabled bool
	CACertPath string
	TLSConfig  *tls.Config // nil disables TLS

	ConnectTimeout time.Duration

	DriverName    string
	DriverVersion string
}

func WithDefaults() *Config {
	return &Config{
		Port:           9042,
		ConnectTimeout: 10 * time.Second,
		DriverName:     "gocassandramfaconnector", // important. Do not change
		DriverVersion:  "1.0.0",
	}
}

// ParseDSN parses a connection string of the form
//
//	cassandra-mfa://host:port/datacenter?tenantId=...&clientId=...&clientSecret=...&scope=...
//
// Optional parameters: sslEnabled (boolean, default false), caCert (path to a
// PEM CA bundle, required when sslEnabled), localDc (fallback when the path
// segment is empty) and timeout (connect timeout in seconds).
func ParseDSN(dsn string) (*Config, error) {
	ctx := context.Background()

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNFormat, err)
	}
	if u.Scheme != DSNScheme {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNScheme, nil)
	}

	cfg := WithDefaults()

	cfg.Host = u.Hostname()
	if cfg.Host == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNHost, nil)
	}
	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNPort, err)
		}
		cfg.Port = port
	}

	params := u.Query()

	cfg.TenantID = params.Get("tenantId")
	cfg.ClientID = params.Get("clientId")
	cfg.ClientSecret = params.Get("clientSecret")
	cfg.Scope = params.Get("scope")
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.Scope == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrMissingCredential, nil)
	}

	cfg.LocalDC = strings.TrimPrefix(u.Path, "/")
	if cfg.LocalDC == "" {
		cfg.LocalDC = params.Get("localDc")
	}
	if cfg.LocalDC == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrMissingLocalDC, nil)
	}

	if sslStr := params.Get("sslEnabled"); sslStr != "" {
		cfg.SSLEnabled, err = strconv.ParseBool(sslStr)
		if err != nil {
			return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNFormat, err)
		}
	}
	cfg.CACertPath = params.Get("caCert")
	if cfg.SSLEnabled && cfg.CACertPath == "" {
		return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrMissingCACert, nil)
	}

	if timeoutStr := params.Get("timeout"); timeoutStr != "" {
		timeoutSeconds, err := strconv.Atoi(timeoutStr)
		if err != nil || timeoutSeconds <= 0 {
			return nil, cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrInvalidDSNTimeout, err)
		}
		cfg.ConnectTimeout = time.Duration(timeoutSeconds) * time.Second
	}

	return cfg, nil
}

// Sanitized renders the config for logging with the client secret redacted.
func (c *Config) Sanitized() string {
	return fmt.Sprintf(
		"%s://%s:%d/%s?tenantId=%s&clientId=%s&clientSecret=***&scope=%s&sslEnabled=%t",
		DSNScheme, c.Host, c.Port, c.LocalDC, c.TenantID, c.ClientID, c.Scope, c.SSLEnabled,
	)
}

func (c *Config) DeepCopy() *Config {
	if c == nil {
		return nil
	}

	return &Config{
		Host:           c.Host,
		Port:           c.Port,
		LocalDC:        c.LocalDC,
		TenantID:       c.TenantID,
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		Scope:          c.Scope,
		SSLEnabled:     c.SSLEnabled,
		CACertPath:     c.CACertPath,
		TLSConfig:      c.TLSConfig.Clone(),
		ConnectTimeout: c.ConnectTimeout,
		DriverName:     c.DriverName,
		DriverVersion:  c.DriverVersion,
	}
}
