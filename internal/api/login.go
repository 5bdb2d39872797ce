package api

import (
	"net/http"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type NewUserResponse struct {
	NewUser bool   `json:"new_user"`
	Email   string `json:"email"`
}

type ValidationResponse struct {
	Validation Validation `json:"validation"`
}

type Validation struct {
	SocialAuthToken string         `json:"social_auth_token"`
	User            *service.User  `json:"user"`
	Validation      map[string]any `json:"validation"`
	JWT             string         `json:"jwt"`
}

var unreadableTokenInfo = ErrorResponse{
	Error:            "invalid_token_info",
	ErrorDescription: "Identity provider response could not be read",
}

// Validate exchanges an identity provider token for a session token.
// Everything the provider says, including its rejections, is answered
// with 200 and the outcome in the body.
func (a *API) Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(r)
		if err != nil {
			writeAPIError(w, r, errBadRequest, err)
			return
		}

		token := p.get("token")
		if token == "" {
			returnJson(MessageResponse{Message: "no_token_sent"}, http.StatusOK, w)
			return
		}

		result, err := a.service.Login(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		switch result.Outcome {
		case service.LoginRejected:
			if result.Claims.Rejected() {
				returnJson(result.Claims.ErrorPayload(), http.StatusOK, w)
				return
			}
			returnJson(unreadableTokenInfo, http.StatusOK, w)

		case service.LoginNewUser:
			returnJson(NewUserResponse{
				NewUser: true,
				Email:   result.Claims.Email,
			}, http.StatusOK, w)

		case service.LoginIssued:
			returnJson(ValidationResponse{
				Validation: Validation{
					SocialAuthToken: token,
					User:            result.User,
					Validation:      result.Claims.Raw,
					JWT:             result.Session.Encoded(),
				},
			}, http.StatusOK, w)
		}
	}
}
