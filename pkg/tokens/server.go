package tokens

import (
	"fmt"
	"time"
)

// Server implements both Issuer and Validator interfaces for the login
// handler. It holds the shared HMAC secret plus the issuer, audience and
// lifetime stamped into every token. Create a Server instance using
// InitServer.
type Server struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
}

//
// Issuer interface

func (server *Server) SignMessage(message string) (string, error) {
	return signMessage(message, server.secret)
}

func (server *Server) IssueSessionToken(
	uid string,
) (*SessionToken, error) {
	if uid == "" {
		return nil, fmt.Errorf("failed to issue session token: %w", errEmptySubject)
	}

	// whole seconds, so a token round-trips through its claims unchanged
	now := server.now().Truncate(time.Second)
	token := &SessionToken{
		issuer:     server.issuer,
		issuedAt:   now,
		expiration: now.Add(server.lifetime),
		audience:   server.audience,
		subject:    uid,
		uid:        uid,
	}

	header, payload := token.intoClaims()
	encToken, err := encodeToken(header, payload, server)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session token: %v", err)
	}
	token.encoded = encToken

	return token, nil
}

//
// Validator interface

func (server *Server) VerifySignature(
	encHeader string,
	encPayload string,
	encSignature string,
) error {
	return verifySignature(
		encHeader,
		encPayload,
		encSignature,
		server.secret,
	)
}

func (server *Server) ShouldValidateAudience() bool {
	return true
}

func (server *Server) ValidateDomain(issuerDomain string) bool {
	return issuerDomain == server.issuer
}

func (server *Server) ValidateAudiences(audience string) bool {
	return audience == server.audience
}
