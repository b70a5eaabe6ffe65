package errors

import (
	"context"
	"fmt"

	"github.com/att/cassandra-mfa-go/driverctx"
	cmfaerr "github.com/att/cassandra-mfa-go/errors"
	"github.com/pkg/errors"
)

// Error messages
const (
	// Driver errors (unsupported operations, driver specific non-recoverable failures)
	ErrNotImplemented           = "not implemented"
	ErrTransactionsNotSupported = "transactions are not supported"
	ErrStatementsNotSupported   = "statements are not supported, unwrap the session for CQL access"
	ErrQueriesNotSupported      = "queries are not supported, unwrap the session for CQL access"

	// Request error messages (DSN, connection, session creation)
	ErrInvalidDSNFormat  = "invalid DSN: invalid format"
	ErrInvalidDSNScheme  = "invalid DSN: URL must start with cassandra-mfa://"
	ErrInvalidDSNHost    = "invalid DSN: missing host"
	ErrInvalidDSNPort    = "invalid DSN: invalid DSN port"
	ErrInvalidDSNTimeout = "invalid DSN: timeout param is not an integer"
	ErrMissingCredential = "invalid DSN: missing Azure AD parameters (tenantId, clientId, clientSecret, scope)"
	ErrMissingLocalDC    = "invalid DSN: missing local datacenter"
	ErrMissingCACert     = "invalid DSN: sslEnabled requires caCert"
	ErrInvalidCACert     = "invalid CA certificate bundle"
	ErrSessionCreate     = "failed to create Cassandra session"
	ErrCloseConnection   = "failed to close connection"
	ErrConnectionProbe   = "connection probe failed"

	// Authentication error messages
	ErrTokenRequest   = "identity provider request failed"
	ErrEmptyToken     = "identity provider returned no token value"
	ErrTokenCancelled = "cancelled while acquiring token"
)

type cassMfaError struct {
	err           error
	correlationId string
	connectionId  string
	errType       string
}

var _ error = (*cassMfaError)(nil)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newCassMfaError(ctx context.Context, msg string, err error) cassMfaError {
	// create an error with the new message
	if err == nil {
		err = errors.New(msg)
	} else {
		err = errors.WithMessage(err, msg)
	}

	// if the source error does not have a stack trace in its
	// error chain add a stack trace
	var st stackTracer
	if ok := errors.As(err, &st); !ok {
		err = errors.WithStack(err)
	}

	return cassMfaError{
		err:           err,
		correlationId: driverctx.CorrelationIdFromContext(ctx),
		connectionId:  driverctx.ConnIdFromContext(ctx),
		errType:       "unknown",
	}
}

func (e cassMfaError) Error() string {
	return fmt.Sprintf("cassandra-mfa: %s: %s", e.errType, e.err.Error())
}

func (e cassMfaError) Cause() error {
	return e.err
}

func (e cassMfaError) StackTrace() errors.StackTrace {
	var st stackTracer
	if ok := errors.As(e.err, &st); ok {
		return st.StackTrace()
	}

	return nil
}

func (e cassMfaError) CorrelationId() string {
	return e.correlationId
}

func (e cassMfaError) ConnectionId() string {
	return e.connectionId
}

// driverError are issues with the driver itself, e.g. not supported operations
type driverError struct {
	cassMfaError
}

var _ cmfaerr.CassMfaError = (*driverError)(nil)

func (e driverError) Is(err error) bool {
	return err == cmfaerr.DriverError
}

func (e driverError) Unwrap() error {
	return e.err
}

func NewDriverError(ctx context.Context, msg string, err error) *driverError {
	mfaErr := newCassMfaError(ctx, msg, err)
	mfaErr.errType = "driver error"
	return &driverError{cassMfaError: mfaErr}
}

// requestError are errors caused by invalid requests, e.g. a malformed DSN or an
// unreachable contact point
type requestError struct {
	cassMfaError
}

var _ cmfaerr.CassMfaError = (*requestError)(nil)

func (e requestError) Is(err error) bool {
	return err == cmfaerr.RequestError
}

func (e requestError) Unwrap() error {
	return e.err
}

func NewRequestError(ctx context.Context, msg string, err error) *requestError {
	mfaErr := newCassMfaError(ctx, msg, err)
	mfaErr.errType = "request error"
	return &requestError{cassMfaError: mfaErr}
}

// authError are failures to acquire or refresh a bearer token. The kind value
// is one of the public sentinels so callers can classify with errors.Is().
// Only tenant/client identifiers are carried, never the client secret.
type authError struct {
	cassMfaError
	kind     error
	tenantId string
	clientId string
}

var _ cmfaerr.AuthError = (*authError)(nil)

func (e authError) Is(err error) bool {
	return err == e.kind
}

func (e authError) Unwrap() error {
	return e.err
}

func (e authError) TenantId() string {
	return e.tenantId
}

func (e authError) ClientId() string {
	return e.clientId
}

func newAuthError(ctx context.Context, kind error, tenantId, clientId, msg string, err error) *authError {
	mfaErr := newCassMfaError(ctx, msg, err)
	mfaErr.errType = "authentication error"
	return &authError{cassMfaError: mfaErr, kind: kind, tenantId: tenantId, clientId: clientId}
}

func NewTransientAuthError(ctx context.Context, tenantId, clientId string, err error) *authError {
	return newAuthError(ctx, cmfaerr.TransientAuthError, tenantId, clientId, ErrTokenRequest, err)
}

func NewMalformedTokenError(ctx context.Context, tenantId, clientId string) *authError {
	return newAuthError(ctx, cmfaerr.MalformedTokenError, tenantId, clientId, ErrEmptyToken, nil)
}

func NewCancelledError(ctx context.Context, tenantId, clientId string, err error) *authError {
	return newAuthError(ctx, cmfaerr.CancelledError, tenantId, clientId, ErrTokenCancelled, err)
}

func NewExhaustedRetriesError(ctx context.Context, tenantId, clientId string, attempts int, err error) *authError {
	msg := fmt.Sprintf("failed to obtain token after %d attempts", attempts)
	return newAuthError(ctx, cmfaerr.ExhaustedRetriesError, tenantId, clientId, msg, err)
}

// wraps an error and adds trace if not already present
func WrapErr(err error, msg string) error {
	var st stackTracer
	if ok := errors.As(err, &st); ok {
		// wrap passed in error in a new error with the message
		return errors.WithMessage(err, msg)
	}

	// wrap passed in error in errors with the message and a stack trace
	return errors.Wrap(err, msg)
}
