package errors

import "github.com/pkg/errors"

// value to be used with errors.Is() to determine if an error chain contains a transient
// identity-provider failure (network error, 5xx, timeout). Retried internally before surfacing.
var TransientAuthError error = errors.New("transient authentication failure")

// value to be used with errors.Is() to determine if the identity provider responded
// without a usable token value. Treated as transient for retry purposes.
var MalformedTokenError error = errors.New("malformed token response")

// value to be used with errors.Is() to determine if a token acquisition was cancelled
// while waiting. Surfaced immediately, without further retries.
var CancelledError error = errors.New("token acquisition cancelled")

// value to be used with errors.Is() to determine if every token acquisition attempt
// failed. Wraps the last underlying cause.
var ExhaustedRetriesError error = errors.New("token acquisition retries exhausted")

// value to be used with errors.Is() to determine if an error chain contains a request
// error (invalid DSN, session creation failure)
var RequestError error = errors.New("Request Error")

// value to be used with errors.Is() to determine if an error chain contains a driver
// error (unsupported operations, driver specific non-recoverable failures)
var DriverError error = errors.New("Driver Error")

// Base interface for driver errors
type CassMfaError interface {
	// Descriptive message describing the error
	Error() string

	// User specified id to track what happens under a request. Useful to track multiple
	// connections in the same request. Appears in log messages as field corrId.
	// See driverctx.NewContextWithCorrelationId()
	CorrelationId() string

	// Internal id to track what happens under a connection. Connections can be reused
	// so this would track across handshakes. Appears in log messages as field connId.
	ConnectionId() string

	// Stack trace associated with the error. May be nil.
	StackTrace() errors.StackTrace

	// Underlying causative error. May be nil.
	Cause() error
}

// An error raised while acquiring or refreshing a bearer token.
// Only identifiers are exposed, never the client secret.
type AuthError interface {
	CassMfaError

	// Azure AD tenant the token was requested from.
	TenantId() string

	// Application (client) id the token was requested for.
	ClientId() string
}
