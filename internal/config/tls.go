package config

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
)

// TLSConfigFromCA builds a TLS config that trusts exactly the certificate
// authorities in the given PEM bundle. Server certificate verification stays
// enabled; the cluster's certificates must chain to one of the bundled CAs.
func TLSConfigFromCA(caCertPath string) (*tls.Config, error) {
	pem, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CA bundle %s", caCertPath)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.Errorf("no certificates found in CA bundle %s", caCertPath)
	}

	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
