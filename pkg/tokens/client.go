package tokens

import (
	"slices"
	"strings"
)

// Client implements the Validator interface for backend applications that
// share the login handler's secret. It enforces that tokens are intended
// for this specific application (audience checking). Create a Client
// instance using InitClient.
type Client struct {
	secret        []byte
	issuerDomain  string
	validAudience string
}

//
// Validator interface

func (client *Client) VerifySignature(
	encHeader string,
	encPayload string,
	encSignature string,
) error {
	return verifySignature(
		encHeader,
		encPayload,
		encSignature,
		client.secret,
	)
}

func (client *Client) ShouldValidateAudience() bool {
	return true
}

func (client *Client) ValidateDomain(issuerDomain string) bool {
	return issuerDomain == client.issuerDomain
}

func (client *Client) ValidateAudiences(audience string) bool {
	audiences := strings.Split(audience, " ")
	return slices.Contains(audiences, client.validAudience)
}
