package api

import (
	"net/http"
	"strings"
)

type SessionResponse struct {
	UID        string `json:"uid"`
	Subject    string `json:"sub"`
	Issuer     string `json:"iss"`
	Expiration int64  `json:"exp"`
}

// Session reports the claims of the bearer session token.
func (a *API) Session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := a.service.VerifySessionToken(bearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			writeAPIError(w, r, errInvalidToken, err)
			return
		}

		returnJson(SessionResponse{
			UID:        token.UID(),
			Subject:    token.Subject(),
			Issuer:     token.Issuer(),
			Expiration: token.Expiration().Unix(),
		}, http.StatusOK, w)
	}
}

func (a *API) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.health != nil {
			if err := a.health.Ping(); err != nil {
				writeAPIError(w, r, apiError{http.StatusServiceUnavailable, ErrorResponse{"unavailable", "Database unreachable"}}, err)
				return
			}
		}
		returnJson(MessageResponse{Message: "ok"}, http.StatusOK, w)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
