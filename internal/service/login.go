package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

type LoginOutcome int

const (
	// LoginRejected means the identity provider did not vouch for the token.
	LoginRejected LoginOutcome = iota
	// LoginNewUser means the token is good but no local user has its email.
	LoginNewUser
	// LoginIssued means a session token was issued for an existing user.
	LoginIssued
)

// LoginResult is the outcome of exchanging an identity token.
type LoginResult struct {
	Outcome LoginOutcome
	Claims  *identity.Claims
	User    *User
	Session *tokens.SessionToken
}

// Login exchanges an identity provider token for a session token. A token
// the provider rejects is a normal outcome (LoginRejected), as is a valid
// token for an unknown email (LoginNewUser); errors are reserved for
// empty input, an unreachable provider, blocked users and internal faults.
func (s *Service) Login(
	ctx context.Context,
	identityToken string,
) (
	*LoginResult,
	error,
) {
	if identityToken == "" {
		return nil, fmt.Errorf("%w: no token sent", ErrEmptyInput)
	}

	claims, err := s.validator.Validate(ctx, identityToken)
	if err != nil {
		if errors.Is(err, identity.ErrEmptyToken) {
			return nil, fmt.Errorf("%w: %v", ErrEmptyInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if !claims.Verified() {
		return &LoginResult{Outcome: LoginRejected, Claims: claims}, nil
	}

	user, err := s.userStore.GetUserByEmail(normalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &LoginResult{Outcome: LoginNewUser, Claims: claims}, nil
		}
		return nil, fmt.Errorf("%w: failed to load user: %v", ErrInternal, err)
	}

	if !user.Active() {
		return nil, fmt.Errorf("%w: %s", ErrUserBlocked, user.Email)
	}

	session, err := s.IssueSessionToken(user.UID)
	if err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Str("uid", user.UID).Msg("session issued for identity token")

	return &LoginResult{
		Outcome: LoginIssued,
		Claims:  claims,
		User:    user,
		Session: session,
	}, nil
}
