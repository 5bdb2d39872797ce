package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"git.sr.ht/~jakintosh/loginhandler/pkg/tokens"
)

// bcrypt only reads this many bytes of a password
const maxPasswordBytes = 72

// CreateUser adds an active user and issues their first session token.
// The password is optional: accounts created after an identity provider
// login have none. Nothing is stored when the signing config can't issue
// that token.
func (s *Service) CreateUser(
	name string,
	email string,
	password string,
) (
	*User,
	*tokens.SessionToken,
	error,
) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, fmt.Errorf("%w: no email sent", ErrEmptyInput)
	}
	if name == "" {
		return nil, nil, fmt.Errorf("%w: no name sent", ErrEmptyInput)
	}

	secret, err := s.hashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	issuer, err := s.issuer()
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userStore.InsertUser(name, email, secret)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, nil, fmt.Errorf("%w: %s", ErrEmailExists, email)
		}
		return nil, nil, fmt.Errorf("%w: failed to insert user: %v", ErrInternal, err)
	}
	s.observer.UserCreated()

	session, err := s.issueWith(issuer, user.UID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

func (s *Service) LoadUser(
	email string,
) (
	*User,
	error,
) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: no email sent", ErrEmptyInput)
	}

	user, err := s.userStore.GetUserByEmail(email)
	if err != nil {
		return nil, s.lookupError(email, err)
	}
	return user, nil
}

// UpdateUser changes the name and/or password of the user with email.
// Empty values leave the field as it was.
func (s *Service) UpdateUser(
	email string,
	name string,
	password string,
) (
	*User,
	error,
) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: no email sent", ErrEmptyInput)
	}

	update := UserUpdate{}
	if name != "" {
		update.Name = &name
	}
	if password != "" {
		secret, err := s.hashPassword(password)
		if err != nil {
			return nil, err
		}
		update.Secret = secret
	}

	user, err := s.userStore.UpdateUser(email, update)
	if err != nil {
		return nil, s.lookupError(email, err)
	}
	return user, nil
}

// BlockUser disables the user with email. Blocked users keep their row
// but can no longer exchange identity tokens for sessions.
func (s *Service) BlockUser(
	email string,
) (
	*User,
	error,
) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: no email sent", ErrEmptyInput)
	}

	user, err := s.userStore.SetUserStatus(email, StatusBlocked)
	if err != nil {
		return nil, s.lookupError(email, err)
	}
	return user, nil
}

func (s *Service) hashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordMode.Cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: at most %d bytes", ErrPasswordTooLong, maxPasswordBytes)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %v", ErrInternal, err)
	}
	return hash, nil
}

func (s *Service) lookupError(email string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
