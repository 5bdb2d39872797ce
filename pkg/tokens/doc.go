// Package tokens provides session token issuing and validation for the
// login handler.
//
// Session tokens are compact, three-part bearer tokens signed with
// HMAC-SHA256 over a shared secret:
//
//	base64url(header) "." base64url(payload) "." base64url(signature)
//
// The header carries the registered claims (typ, alg, iss, sub, exp, iat,
// aud) and the payload only carries the local user id (uid). The
// signature covers "header.payload". Segments use URL-safe base64 without
// padding. Tokens are stateless: validity is decided solely by
// recomputing the signature and checking the expiration.
//
// There are two roles:
//
//   - Server: issues and validates tokens; built from a SigningConfig
//   - Client: validates tokens in downstream backends that share the secret
//
// # Server Usage (Issuing Tokens)
//
//	issuer, validator, err := tokens.InitServer(tokens.SigningConfig{
//	    Secret:   "s3cret",
//	    Issuer:   "app",
//	    Audience: "app-aud",
//	    Lifetime: time.Hour,
//	})
//	if err != nil {
//	    // errors.Is(err, tokens.ErrSigningMisconfigured())
//	    log.Fatal(err)
//	}
//
//	token, err := issuer.IssueSessionToken("42")
//	bearer := token.Encoded()
//
// InitServer refuses to build a Server when the secret, issuer, audience
// or lifetime is missing, so a weak token is never minted silently.
//
// # Client Usage (Validating Tokens)
//
//	validator, err := tokens.InitClient("s3cret", "app", "app-aud")
//
//	token := &tokens.SessionToken{}
//	if err := token.Decode(bearer, validator); err != nil {
//	    return fmt.Errorf("invalid token: %w", err)
//	}
//	uid := token.UID()
//
// # Error Handling
//
//	err := token.Decode(bearer, validator)
//	switch {
//	case errors.Is(err, tokens.ErrTokenExpired()):
//	    // Token has expired
//	case errors.Is(err, tokens.ErrTokenInvalidAudience()):
//	    // Token not intended for this application
//	case errors.Is(err, tokens.ErrTokenBadSignature()):
//	    // Token signature verification failed
//	case errors.Is(err, tokens.ErrTokenMalformed()):
//	    // Token structure is invalid
//	}
package tokens
