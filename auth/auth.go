package auth

import "context"

// Authenticator drives the byte exchange of one native-protocol SASL handshake.
// The transport calls InitialResponse once per connection attempt, feeds any
// further server challenge to EvaluateChallenge, and reports the final
// AUTH_SUCCESS payload to OnSuccess.
type Authenticator interface {
	// InitialResponse returns the bytes of the initial authentication response.
	// It may block for the duration of a token refresh, including identity
	// provider round trips and retry backoff.
	InitialResponse(ctx context.Context) ([]byte, error)

	// EvaluateChallenge returns the response to a server challenge.
	EvaluateChallenge(challenge []byte) ([]byte, error)

	// OnSuccess observes a completed handshake.
	OnSuccess(data []byte)
}

// Provider mints a fresh Authenticator per connection attempt. Handshake state
// is per connection, so authenticators must not be shared between connections.
type Provider interface {
	NewAuthenticator() Authenticator
}

// TokenProvider supplies a current bearer token value, refreshing it if needed.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}
