package cassmfa

import (
	"context"
	"database/sql"
	"database/sql/driver"

	"github.com/att/cassandra-mfa-go/internal/config"
	_ "github.com/att/cassandra-mfa-go/logger"
)

func init() {
	sql.Register("cassandra-mfa", &cassMfaDriver{})
}

type cassMfaDriver struct{}

// Open returns a new connection to Cassandra with a DSN string.
// Use sql.Open("cassandra-mfa", <dsn string>) after importing this driver package.
func (d *cassMfaDriver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector returns a new Connector.
// Used by sql.DB to obtain a Connector and invoke its Connect method to obtain each needed connection.
func (d *cassMfaDriver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := config.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	c, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var _ driver.Driver = (*cassMfaDriver)(nil)
var _ driver.DriverContext = (*cassMfaDriver)(nil)
