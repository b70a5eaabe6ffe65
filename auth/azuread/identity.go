package azuread

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// DefaultAuthority is the Azure AD login endpoint used to mint tokens.
const DefaultAuthority = "https://login.microsoftonline.com"

// Credential holds the client-credentials grant inputs. It is supplied once at
// construction and never mutated. The secret stays in memory only and must not
// appear in logs or error messages.
type Credential struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// Token is an access token with its absolute expiry as reported by the
// identity provider. Immutable once issued.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// IdentityClient requests a fresh token from the identity provider. The token
// cache serializes calls to it, so implementations need not be safe for
// concurrent use.
type IdentityClient interface {
	RequestToken(ctx context.Context) (*Token, error)
}

// identityClient implements IdentityClient on top of the standard OAuth2
// client-credentials flow against the Azure AD v2.0 token endpoint.
type identityClient struct {
	cfg clientcredentials.Config
}

func newIdentityClient(authority string, cred Credential) *identityClient {
	return &identityClient{
		cfg: clientcredentials.Config{
			ClientID:     cred.ClientID,
			ClientSecret: cred.ClientSecret,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, cred.TenantID),
			Scopes:       []string{cred.Scope},
		},
	}
}

func (c *identityClient) RequestToken(ctx context.Context) (*Token, error) {
	t, err := c.cfg.Token(ctx)
	if err != nil {
		return nil, err
	}

	return &Token{Value: t.AccessToken, ExpiresAt: t.Expiry}, nil
}
