package auth

import "context"

// handshake state for one connection attempt
type handshakeState int

const (
	stateInit handshakeState = iota
	stateAwaitingResult
	stateDone
)

const bearerPrefix = "Bearer "

// bearerAuthenticator encodes a bearer token into a SASL PLAIN style initial
// response. The paired server-side authenticator expects the three-field frame
//
//	authzid \x00 authcid \x00 "Bearer " + token
//
// with empty authzid and authcid. The layout is a fixed private contract with
// the server authenticator; changing it breaks every deployed pairing.
type bearerAuthenticator struct {
	tokens TokenProvider
	state  handshakeState
}

type bearerProvider struct {
	tokens TokenProvider
}

// NewBearerProvider returns a Provider whose authenticators present bearer
// tokens from the given TokenProvider. All authenticators share the provider's
// token cache, so concurrent connection attempts trigger at most one refresh.
func NewBearerProvider(tokens TokenProvider) Provider {
	return &bearerProvider{tokens: tokens}
}

func (p *bearerProvider) NewAuthenticator() Authenticator {
	return &bearerAuthenticator{tokens: p.tokens}
}

// InitialResponse builds the NUL separated frame around the current token.
// Token acquisition failures are forwarded unchanged; a handshake with no
// valid token cannot proceed.
func (a *bearerAuthenticator) InitialResponse(ctx context.Context) ([]byte, error) {
	token, err := a.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]byte, 0, 2+len(bearerPrefix)+len(token))
	resp = append(resp, 0, 0)
	resp = append(resp, bearerPrefix...)
	resp = append(resp, token...)

	a.state = stateAwaitingResult
	return resp, nil
}

// EvaluateChallenge always answers with an empty response. The server side
// authenticator never issues a follow-up challenge; the method exists to
// satisfy the handshake interface and must not touch token state.
func (a *bearerAuthenticator) EvaluateChallenge(challenge []byte) ([]byte, error) {
	return nil, nil
}

// OnSuccess completes the handshake. The token is not tied to the session
// lifetime, so nothing is invalidated here.
func (a *bearerAuthenticator) OnSuccess(data []byte) {
	a.state = stateDone
}
