// Package api exposes the login handler over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

type API struct {
	service  *service.Service
	gatherer prometheus.Gatherer
	health   Pinger
}

func New(
	svc *service.Service,
	gatherer prometheus.Gatherer,
	health Pinger,
) *API {
	return &API{
		service:  svc,
		gatherer: gatherer,
		health:   health,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type apiError struct {
	status int
	body   ErrorResponse
}

var (
	errNoEmailSent   = apiError{http.StatusInternalServerError, ErrorResponse{"no_email_sent", "No e-mail sent"}}
	errUserNotFound  = apiError{http.StatusNotFound, ErrorResponse{"user_not_found", "User not found"}}
	errEmailExists   = apiError{http.StatusConflict, ErrorResponse{"email_exists", "A user with this e-mail already exists"}}
	errUserBlocked   = apiError{http.StatusForbidden, ErrorResponse{"user_blocked", "User is blocked"}}
	errUnavailable   = apiError{http.StatusBadGateway, ErrorResponse{"provider_unavailable", "Identity provider unavailable"}}
	errInvalidToken  = apiError{http.StatusUnauthorized, ErrorResponse{"invalid_token", "Session token missing or invalid"}}
	errBadRequest    = apiError{http.StatusBadRequest, ErrorResponse{"invalid_request", "Request is missing a required value"}}
	errPasswordLong  = apiError{http.StatusBadRequest, ErrorResponse{"password_too_long", "Password must be at most 72 bytes"}}
	errInternalError = apiError{http.StatusInternalServerError, ErrorResponse{"internal_error", "Internal server error"}}
)

// errorFor maps service errors to their HTTP form.
func errorFor(err error) apiError {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return errUserNotFound
	case errors.Is(err, service.ErrEmailExists):
		return errEmailExists
	case errors.Is(err, service.ErrUserBlocked):
		return errUserBlocked
	case errors.Is(err, service.ErrProviderUnavailable):
		return errUnavailable
	case errors.Is(err, service.ErrTokenInvalid):
		return errInvalidToken
	case errors.Is(err, service.ErrEmptyInput):
		return errBadRequest
	case errors.Is(err, service.ErrPasswordTooLong):
		return errPasswordLong
	default:
		return errInternalError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeAPIError(w, r, errorFor(err), err)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, e apiError, cause error) {
	event := log.Ctx(r.Context()).Warn()
	if e.status >= http.StatusInternalServerError {
		event = log.Ctx(r.Context()).Error()
	}
	event.Err(cause).Str("code", e.body.Error).Int("status", e.status).Msg("request failed")

	returnJson(e.body, e.status, w)
}

func returnJson(data any, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// params holds request values from the query string, a form body or a
// flat JSON object body, in that order of precedence.
type params map[string]string

func readParams(r *http.Request) (params, error) {
	p := params{}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" && r.Body != nil {
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for k, v := range body {
			if s, ok := v.(string); ok {
				p[k] = s
			}
		}
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k, v := range r.Form {
		if len(v) > 0 && v[0] != "" {
			p[k] = v[0]
		}
	}
	return p, nil
}

func (p params) get(key string) string {
	return strings.TrimSpace(p[key])
}
