package tokens

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ==============================================

// SessionHeader is the first segment of a session token. Unlike a plain
// JWT header it also carries the registered claims, so that the payload
// segment only has to hold the user id.
type SessionHeader struct {
	Type       string `json:"typ"`
	Algorithm  string `json:"alg"`
	Issuer     string `json:"iss"`
	Subject    string `json:"sub"`
	Expiration int64  `json:"exp"`
	IssuedAt   int64  `json:"iat"`
	Audience   string `json:"aud"`
}

// SessionPayload is the second segment of a session token.
type SessionPayload struct {
	UID string `json:"uid"`
}

func (header *SessionHeader) validate(validator Validator, now time.Time) error {
	if time.Unix(header.IssuedAt, 0).After(now) {
		return ErrTokenNotIssued()
	}

	if !time.Unix(header.Expiration, 0).After(now) {
		return ErrTokenExpired()
	}

	if !validator.ValidateDomain(header.Issuer) {
		return ErrTokenInvalidIssuer()
	}

	if validator.ShouldValidateAudience() {
		if !validator.ValidateAudiences(header.Audience) {
			return ErrTokenInvalidAudience()
		}
	}

	return nil
}

// ==============================================

// SessionToken is a stateless bearer token minted for a local user after
// the identity provider has vouched for them. Nothing about it is stored
// server side; it is valid as long as its signature recomputes and its
// expiration is in the future.
type SessionToken struct {
	issuer     string
	issuedAt   time.Time
	expiration time.Time
	audience   string
	subject    string
	uid        string
	encoded    string
}

func (t *SessionToken) Issuer() string        { return t.issuer }
func (t *SessionToken) IssuedAt() time.Time   { return t.issuedAt }
func (t *SessionToken) Expiration() time.Time { return t.expiration }
func (t *SessionToken) Audience() string      { return t.audience }
func (t *SessionToken) Subject() string       { return t.subject }
func (t *SessionToken) UID() string           { return t.uid }
func (t *SessionToken) Encoded() string       { return t.encoded }

func (token *SessionToken) Decode(encToken string, validator Validator) error {
	return token.DecodeAt(encToken, validator, time.Now())
}

// DecodeAt is Decode with an explicit notion of the current time.
func (token *SessionToken) DecodeAt(encToken string, validator Validator, now time.Time) error {
	header, payload, err := decodeToken(encToken, validator, now)
	if err != nil {
		log.Debug().Str("reason", err.Context()).Msg("session token rejected")
		return err
	}
	token.fromClaims(header, payload, encToken)
	return nil
}

func (token *SessionToken) intoClaims() (*SessionHeader, *SessionPayload) {
	header := &SessionHeader{
		Type:       sessionTokenType,
		Algorithm:  sessionTokenAlgorithm,
		Issuer:     token.issuer,
		Subject:    token.subject,
		Expiration: token.expiration.Unix(),
		IssuedAt:   token.issuedAt.Unix(),
		Audience:   token.audience,
	}
	payload := &SessionPayload{
		UID: token.uid,
	}
	return header, payload
}

func (token *SessionToken) fromClaims(header *SessionHeader, payload *SessionPayload, encToken string) {
	token.issuer = header.Issuer
	token.issuedAt = time.Unix(header.IssuedAt, 0)
	token.expiration = time.Unix(header.Expiration, 0)
	token.audience = header.Audience
	token.subject = header.Subject
	token.uid = payload.UID
	token.encoded = encToken
}
