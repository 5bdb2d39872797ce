package identity

import (
	"encoding/json"
	"strings"
)

// Claims is what the identity provider said about a token. On success it
// holds at least an email; on rejection Error and ErrorDescription are
// set. Raw keeps the whole decoded body, and is nil when the body could
// not be parsed.
type Claims struct {
	Email            string
	Error            string
	ErrorDescription string
	Raw              map[string]any
}

// Verified reports whether the provider vouched for the token.
func (c *Claims) Verified() bool {
	return c != nil && c.Raw != nil && c.Error == "" && c.Email != ""
}

// Rejected reports whether the provider answered with a readable body that
// does not vouch for the token. Its error need not be a string: some
// endpoints send only error_description, others an error object.
func (c *Claims) Rejected() bool {
	return c != nil && c.Raw != nil && !c.Verified()
}

// ErrorPayload returns the provider's body as it was sent. Claims built
// without a body fall back to {error, error_description}.
func (c *Claims) ErrorPayload() map[string]any {
	if c == nil {
		return nil
	}
	if c.Raw != nil {
		return c.Raw
	}
	return map[string]any{
		"error":             c.Error,
		"error_description": c.ErrorDescription,
	}
}

func (c *Claims) outcome() Outcome {
	switch {
	case c.Verified():
		return OutcomeVerified
	case c.Raw == nil:
		return OutcomeMalformed
	default:
		return OutcomeRejected
	}
}

// cleanResponse strips the stray characters the token info endpoint has
// been seen to emit around its JSON: literal "\n" sequences, surrounding
// whitespace and trailing commas.
func cleanResponse(body string) string {
	body = strings.ReplaceAll(body, `\n`, "")
	body = strings.TrimSpace(body)
	body = strings.TrimRight(body, ",")
	return strings.TrimSpace(body)
}

func parseClaims(body []byte) *Claims {
	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanResponse(string(body))), &raw); err != nil || raw == nil {
		return &Claims{}
	}

	return &Claims{
		Email:            stringField(raw, "email"),
		Error:            stringField(raw, "error"),
		ErrorDescription: stringField(raw, "error_description"),
		Raw:              raw,
	}
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
