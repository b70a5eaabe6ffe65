package cassmfa

import (
	"context"
	"database/sql/driver"

	"github.com/att/cassandra-mfa-go/driverctx"
	"github.com/att/cassandra-mfa-go/internal/config"
	cmfaerrint "github.com/att/cassandra-mfa-go/internal/errors"
	"github.com/att/cassandra-mfa-go/logger"
	"github.com/gocql/gocql"
)

// conn wraps one authenticated gocql session. The relational surface is a
// compatibility shell: statements and transactions are not supported, use
// Session() for CQL access.
type conn struct {
	id      string
	cfg     *config.Config
	session *gocql.Session
}

// Session exposes the underlying gocql session for CQL access, the equivalent
// of unwrapping the native session from a generic connection handle.
func (c *conn) Session() *gocql.Session {
	return c.session
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return nil, cmfaerrint.NewDriverError(context.TODO(), cmfaerrint.ErrStatementsNotSupported, nil)
}

func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	return nil, cmfaerrint.NewDriverError(ctx, cmfaerrint.ErrStatementsNotSupported, nil)
}

func (c *conn) Close() error {
	logger.Log.Debug().Msgf("closing connection %s", c.id)
	c.session.Close()
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, cmfaerrint.NewDriverError(context.TODO(), cmfaerrint.ErrTransactionsNotSupported, nil)
}

func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, cmfaerrint.NewDriverError(ctx, cmfaerrint.ErrTransactionsNotSupported, nil)
}

// Ping probes the session with a lightweight system table read.
func (c *conn) Ping(ctx context.Context) error {
	ctx = driverctx.NewContextWithConnId(ctx, c.id)
	if c.session.Closed() {
		return driver.ErrBadConn
	}

	err := c.session.Query("SELECT release_version FROM system.local").WithContext(ctx).Exec()
	if err != nil {
		log := logger.WithContext(ctx)
		log.Err(err).Msg("connection probe failed")
		return cmfaerrint.NewRequestError(ctx, cmfaerrint.ErrConnectionProbe, err)
	}
	return nil
}

func (c *conn) ResetSession(ctx context.Context) error {
	// tokens are not tied to session lifetime, nothing to reset
	if c.session.Closed() {
		return driver.ErrBadConn
	}
	return nil
}

func (c *conn) IsValid() bool {
	return !c.session.Closed()
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	return nil, cmfaerrint.NewDriverError(ctx, cmfaerrint.ErrQueriesNotSupported, nil)
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	return nil, cmfaerrint.NewDriverError(ctx, cmfaerrint.ErrQueriesNotSupported, nil)
}

var _ driver.Conn = (*conn)(nil)
var _ driver.Pinger = (*conn)(nil)
var _ driver.SessionResetter = (*conn)(nil)
var _ driver.Validator = (*conn)(nil)
var _ driver.ExecerContext = (*conn)(nil)
var _ driver.QueryerContext = (*conn)(nil)
var _ driver.ConnPrepareContext = (*conn)(nil)
var _ driver.ConnBeginTx = (*conn)(nil)
