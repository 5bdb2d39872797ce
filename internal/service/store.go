package service

import "time"

// User is a local account that session tokens are keyed to.
type User struct {
	UID     string    `json:"uid"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Status  int       `json:"status"`
	Created time.Time `json:"created"`
}

const (
	StatusBlocked = 0
	StatusActive  = 1
)

func (u *User) Active() bool {
	return u.Status == StatusActive
}

// UserUpdate carries the fields to change; nil fields are left alone.
type UserUpdate struct {
	Name   *string
	Secret []byte
}

// UserStore handles persistence of user accounts. Lookups of a missing
// user return an error wrapping sql.ErrNoRows; inserting a taken email
// returns an error wrapping ErrEmailExists.
type UserStore interface {
	InsertUser(name string, email string, secret []byte) (*User, error)
	GetUserByEmail(email string) (*User, error)
	UpdateUser(email string, update UserUpdate) (*User, error)
	SetUserStatus(email string, status int) (*User, error)
}
