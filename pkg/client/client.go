package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

var (
	ErrNoToken          = errors.New("no token")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrIdentityRejected = errors.New("identity token rejected")
	ErrNewUser          = errors.New("no user for identity")
	ErrExchangeRequest  = errors.New("failed to reach login handler")
	ErrExchangeResponse = errors.New("invalid login handler response")
)

const (
	validatePath      = "/google-login/validate"
	SessionCookieName = "sessionToken"
)

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
	Path     string
}

// Client talks to a login handler and verifies the session tokens it
// issues. Create one with New.
type Client struct {
	baseURL    string
	validator  tokens.Validator
	httpClient *http.Client
	cookies    CookieOptions
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithCookieOptions(opts CookieOptions) Option {
	return func(client *Client) {
		client.cookies = opts
	}
}

func New(
	baseURL string,
	validator tokens.Validator,
	opts ...Option,
) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		validator:  validator,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cookies: CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
			Path:     "/",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.cookies.Secure {
		log.Warn().Msg("session cookies will be sent without the Secure flag")
	}
	return c
}

// Exchange trades an identity provider token for a verified session
// token. A rejected identity token returns ErrIdentityRejected wrapped
// with the provider's description; a valid one with no matching user
// returns ErrNewUser and the email in the error text.
func (c *Client) Exchange(
	ctx context.Context,
	identityToken string,
) (
	*tokens.SessionToken,
	error,
) {
	if identityToken == "" {
		return nil, ErrNoToken
	}

	body, err := json.Marshal(map[string]string{"token": identityToken})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to post identity token")
		return nil, fmt.Errorf("%w: %v", ErrExchangeRequest, err)
	}
	defer res.Body.Close()

	exchange := exchangeResponse{}
	if err := json.NewDecoder(res.Body).Decode(&exchange); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeResponse, err)
	}

	switch {
	case exchange.Validation != nil && exchange.Validation.JWT != "":
		session := &tokens.SessionToken{}
		if err := session.Decode(exchange.Validation.JWT, c.validator); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
		return session, nil
	case exchange.NewUser:
		return nil, fmt.Errorf("%w: %s", ErrNewUser, exchange.Email)
	case exchange.Error != nil || exchange.ErrorDescription != "":
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %d %v", ErrExchangeResponse, res.StatusCode, exchange.Error)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrIdentityRejected, exchange.Error, exchange.ErrorDescription)
	case exchange.Message != "":
		return nil, fmt.Errorf("%w: %s", ErrNoToken, exchange.Message)
	default:
		return nil, fmt.Errorf("%w: unrecognized body", ErrExchangeResponse)
	}
}

// VerifyAuthorization returns the session token carried by r, in a Bearer
// header or the session cookie.
func (c *Client) VerifyAuthorization(r *http.Request) (*tokens.SessionToken, error) {
	encoded := requestToken(r)
	if encoded == "" {
		return nil, ErrNoToken
	}

	session := &tokens.SessionToken{}
	if err := session.Decode(encoded, c.validator); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("session token rejected")
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return session, nil
}

func (c *Client) SetSessionCookie(w http.ResponseWriter, session *tokens.SessionToken) {
	maxAge := time.Until(session.Expiration()).Seconds()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Path:     c.cookies.Path,
		Value:    session.Encoded(),
		MaxAge:   int(maxAge),
		SameSite: c.cookies.SameSite,
		Secure:   c.cookies.Secure,
		HttpOnly: true,
	})
}

func (c *Client) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookieName,
		Path:   c.cookies.Path,
		MaxAge: -1,
	})
}

type exchangeResponse struct {
	Message          string `json:"message"`
	Error            any    `json:"error"`
	ErrorDescription string `json:"error_description"`
	NewUser          bool   `json:"new_user"`
	Email            string `json:"email"`
	Validation       *struct {
		JWT string `json:"jwt"`
	} `json:"validation"`
}

func requestToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
