package client

import (
	"context"
	"net/http"

	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

// Verifier validates authorization from HTTP requests.
// Consuming projects should depend on this interface rather than *Client
// to enable testing with fake implementations.
type Verifier interface {
	VerifyAuthorization(r *http.Request) (*tokens.SessionToken, error)
}

// Exchanger trades identity provider tokens for session tokens.
type Exchanger interface {
	Exchange(ctx context.Context, identityToken string) (*tokens.SessionToken, error)
}

// Compile-time checks that *Client implements the interfaces.
var _ Verifier = (*Client)(nil)
var _ Exchanger = (*Client)(nil)
