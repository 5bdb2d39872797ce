// Package service implements the business logic layer of the login handler.
// It exchanges identity provider tokens for session tokens and manages the
// local user accounts those sessions are keyed to.
package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

var (
	ErrEmptyInput          = errors.New("empty input")
	ErrPasswordTooLong     = errors.New("password too long")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserBlocked         = errors.New("user blocked")
	ErrEmailExists         = errors.New("email already exists")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrInternal            = errors.New("internal error")
)

// PasswordMode controls bcrypt cost for password hashing.
// Use PasswordModeProduction for real deployments and PasswordModeTesting only in tests.
type PasswordMode int

const (
	// PasswordModeProduction uses bcrypt.DefaultCost (10) for secure password hashing.
	PasswordModeProduction PasswordMode = iota
	// PasswordModeTesting uses bcrypt.MinCost (4) for fast test execution.
	// WARNING: This mode will panic if used outside of go test.
	PasswordModeTesting
)

// Cost returns the bcrypt cost for this mode.
// Panics if PasswordModeTesting is used outside of a test binary.
func (m PasswordMode) Cost() int {
	switch m {
	case PasswordModeTesting:
		if !testing.Testing() {
			panic("service: PasswordModeTesting used outside of test environment")
		}
		return bcrypt.MinCost
	default:
		return bcrypt.DefaultCost
	}
}

// IdentityValidator checks identity provider tokens.
type IdentityValidator interface {
	Validate(ctx context.Context, token string) (*identity.Claims, error)
}

// SigningSource yields the signing config for a single request.
type SigningSource interface {
	SigningConfig() tokens.SigningConfig
}

// Observer is told about session and account events.
type Observer interface {
	SessionIssued()
	SessionRejected()
	IssuanceFailed()
	UserCreated()
}

// Service coordinates identity validation, user lookup and session
// issuance. It depends on a UserStore for persistence and reads the
// signing config afresh for every token it issues or verifies.
type Service struct {
	userStore    UserStore
	validator    IdentityValidator
	signing      SigningSource
	observer     Observer
	passwordMode PasswordMode
	tokenOptions []tokens.Option
}

func New(
	userStore UserStore,
	validator IdentityValidator,
	signing SigningSource,
	observer Observer,
	passwordMode PasswordMode,
	tokenOptions ...tokens.Option,
) *Service {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		userStore:    userStore,
		validator:    validator,
		signing:      signing,
		observer:     observer,
		passwordMode: passwordMode,
		tokenOptions: tokenOptions,
	}
}

// IssueSessionToken mints a session token for uid with the current
// signing config. It refuses to issue anything when that config is
// incomplete.
func (s *Service) IssueSessionToken(uid string) (*tokens.SessionToken, error) {
	issuer, err := s.issuer()
	if err != nil {
		return nil, err
	}
	return s.issueWith(issuer, uid)
}

// issuer builds a token issuer from the current signing config.
func (s *Service) issuer() (tokens.Issuer, error) {
	issuer, _, err := tokens.InitServer(s.signing.SigningConfig(), s.tokenOptions...)
	if err != nil {
		s.observer.IssuanceFailed()
		log.Error().Err(err).Msg("refusing to issue session token")
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return issuer, nil
}

func (s *Service) issueWith(issuer tokens.Issuer, uid string) (*tokens.SessionToken, error) {
	token, err := issuer.IssueSessionToken(uid)
	if err != nil {
		s.observer.IssuanceFailed()
		return nil, fmt.Errorf("%w: couldn't issue session token: %v", ErrInternal, err)
	}

	s.observer.SessionIssued()
	return token, nil
}

// VerifySessionToken decodes and checks a bearer token issued by this
// service.
func (s *Service) VerifySessionToken(encoded string) (*tokens.SessionToken, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: no session token", ErrEmptyInput)
	}

	_, validator, err := tokens.InitServer(s.signing.SigningConfig(), s.tokenOptions...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	token := &tokens.SessionToken{}
	if err := token.Decode(encoded, validator); err != nil {
		s.observer.SessionRejected()
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return token, nil
}

type noopObserver struct{}

func (noopObserver) SessionIssued()   {}
func (noopObserver) SessionRejected() {}
func (noopObserver) IssuanceFailed()  {}
func (noopObserver) UserCreated()     {}
