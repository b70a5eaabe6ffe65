package cassmfa

import (
	"context"
	"database/sql/driver"
	"testing"

	cmfaerr "github.com/att/cassandra-mfa-go/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the relational surface is a compatibility shell; every statement level
// operation reports a driver error without touching the session
func TestConn_UnsupportedOperations(t *testing.T) {
	c := &conn{id: "test-conn"}
	ctx := context.Background()

	_, err := c.Prepare("SELECT 1")
	assertDriverError(t, err)

	_, err = c.PrepareContext(ctx, "SELECT 1")
	assertDriverError(t, err)

	_, err = c.Begin()
	assertDriverError(t, err)

	_, err = c.BeginTx(ctx, driver.TxOptions{})
	assertDriverError(t, err)

	_, err = c.ExecContext(ctx, "INSERT INTO t (a) VALUES (1)", nil)
	assertDriverError(t, err)

	_, err = c.QueryContext(ctx, "SELECT * FROM t", nil)
	assertDriverError(t, err)
}

func assertDriverError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmfaerr.DriverError))
}
