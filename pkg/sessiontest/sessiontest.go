// Package sessiontest helps backends test code that sits behind login
// handler session tokens, without running a login handler.
package sessiontest

import (
	"net/http"
	"net/http/httptest"
	"time"

	"git.sr.ht/~jakintosh/loginhandler/pkg/client"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

const (
	DefaultSecret   = "sessiontest-secret"
	DefaultLifetime = time.Hour
)

// Keys holds the shared signing values of a fake login handler.
type Keys struct {
	Secret       string
	IssuerDomain string
	Audience     string
	Lifetime     time.Duration
}

// NewKeys returns keys for issuerDomain and audience with a fixed secret.
func NewKeys(issuerDomain string, audience string) *Keys {
	return &Keys{
		Secret:       DefaultSecret,
		IssuerDomain: issuerDomain,
		Audience:     audience,
		Lifetime:     DefaultLifetime,
	}
}

func (k *Keys) SigningConfig() tokens.SigningConfig {
	return tokens.SigningConfig{
		Secret:   k.Secret,
		Issuer:   k.IssuerDomain,
		Audience: k.Audience,
		Lifetime: k.Lifetime,
	}
}

// Validator returns the validator a backend would build from these keys.
func (k *Keys) Validator() (tokens.Validator, error) {
	return tokens.InitClient(k.Secret, k.IssuerDomain, k.Audience)
}

// NewSession mints a session token for uid.
func NewSession(keys *Keys, uid string, opts ...tokens.Option) (*tokens.SessionToken, error) {
	issuer, _, err := tokens.InitServer(keys.SigningConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return issuer.IssueSessionToken(uid)
}

// NewExpiredSession mints a session token for uid that expired a minute ago.
func NewExpiredSession(keys *Keys, uid string) (*tokens.SessionToken, error) {
	issuedAt := time.Now().Add(-keys.Lifetime - time.Minute)
	return NewSession(keys, uid, tokens.WithClock(func() time.Time { return issuedAt }))
}

// AuthenticatedRequest builds a request carrying a fresh bearer session
// token for uid.
func AuthenticatedRequest(keys *Keys, method string, url string, uid string) (*http.Request, error) {
	session, err := NewSession(keys, uid)
	if err != nil {
		return nil, err
	}
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+session.Encoded())
	return req, nil
}

// Verifier implements client.Verifier against Keys, for handlers that
// take a client.Verifier dependency.
type Verifier struct {
	keys *Keys
}

var _ client.Verifier = (*Verifier)(nil)

func NewVerifier(keys *Keys) *Verifier {
	return &Verifier{keys: keys}
}

func (v *Verifier) VerifyAuthorization(r *http.Request) (*tokens.SessionToken, error) {
	validator, err := v.keys.Validator()
	if err != nil {
		return nil, err
	}
	return client.New("", validator).VerifyAuthorization(r)
}
