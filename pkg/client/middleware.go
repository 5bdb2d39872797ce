package client

import (
	"context"
	"net/http"

	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

type sessionKey struct{}

// RequireSession rejects requests without a valid session token with 401
// and hands the decoded token to next through the request context.
func (c *Client) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := c.VerifyAuthorization(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (*tokens.SessionToken, bool) {
	session, ok := ctx.Value(sessionKey{}).(*tokens.SessionToken)
	return session, ok
}
