package api

import (
	"errors"
	"net/http"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
)

type CreateUserResponse struct {
	User *service.User `json:"user"`
	JWT  string        `json:"jwt"`
}

func (a *API) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(r)
		if err != nil {
			writeAPIError(w, r, errBadRequest, err)
			return
		}
		if p.get("email") == "" {
			writeAPIError(w, r, errNoEmailSent, nil)
			return
		}

		user, token, err := a.service.CreateUser(p.get("name"), p.get("email"), p["password"])
		if err != nil {
			writeError(w, r, err)
			return
		}

		returnJson(CreateUserResponse{User: user, JWT: token.Encoded()}, http.StatusCreated, w)
	}
}

func (a *API) LoadUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			writeAPIError(w, r, errNoEmailSent, nil)
			return
		}

		user, err := a.service.LoadUser(email)
		if err != nil {
			// lookups answer a missing user with 500, unlike update and block
			if errors.Is(err, service.ErrUserNotFound) {
				writeAPIError(w, r, apiError{http.StatusInternalServerError, errUserNotFound.body}, err)
				return
			}
			writeError(w, r, err)
			return
		}

		returnJson(user, http.StatusOK, w)
	}
}

func (a *API) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(r)
		if err != nil {
			writeAPIError(w, r, errBadRequest, err)
			return
		}
		if p.get("email") == "" {
			writeAPIError(w, r, errNoEmailSent, nil)
			return
		}

		user, err := a.service.UpdateUser(p.get("email"), p.get("name"), p["password"])
		if err != nil {
			writeError(w, r, err)
			return
		}

		returnJson(user, http.StatusOK, w)
	}
}

// BlockUser answers DELETE by blocking the user; the account is kept.
func (a *API) BlockUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(r)
		if err != nil {
			writeAPIError(w, r, errBadRequest, err)
			return
		}
		if p.get("email") == "" {
			writeAPIError(w, r, errNoEmailSent, nil)
			return
		}

		user, err := a.service.BlockUser(p.get("email"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		returnJson(user, http.StatusOK, w)
	}
}
