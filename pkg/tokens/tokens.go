package tokens

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type validateError struct {
	context string
	err     error
}

func (t *validateError) Context() string {
	return t.context
}
func (t *validateError) Error() string {
	return fmt.Sprintf("%v", t.err)
}
func (t *validateError) Unwrap() error {
	return t.err
}

var (
	errTokenMalformed       = errors.New("token malformed")
	errTokenBadSignature    = errors.New("token bad signature")
	errTokenInvalidAudience = errors.New("token invalid audience")
	errTokenInvalidIssuer   = errors.New("token invalid issuer")
	errTokenExpired         = errors.New("token expired")
	errTokenNotIssued       = errors.New("token not issued yet")
	errSigningMisconfigured = errors.New("signing misconfigured")
	errSubjectMismatch      = errors.New("token subject does not match uid")
	errEmptySubject         = errors.New("token subject empty")
)

const (
	sessionTokenType         = "JWT"
	sessionTokenSegmentCount = 3
)

var (
	signingMethod         = jwt.SigningMethodHS256
	sessionTokenAlgorithm = signingMethod.Alg()
)

func ErrTokenMalformed() error       { return errTokenMalformed }
func ErrTokenBadSignature() error    { return errTokenBadSignature }
func ErrTokenInvalidAudience() error { return errTokenInvalidAudience }
func ErrTokenInvalidIssuer() error   { return errTokenInvalidIssuer }
func ErrTokenExpired() error         { return errTokenExpired }
func ErrTokenNotIssued() error       { return errTokenNotIssued }

// ErrSigningMisconfigured is returned when a server or client is built
// from a SigningConfig that is missing its secret, issuer or audience.
func ErrSigningMisconfigured() error { return errSigningMisconfigured }

type Issuer interface {
	SignMessage(string) (string, error)
	IssueSessionToken(uid string) (*SessionToken, error)
}

type Validator interface {
	ShouldValidateAudience() bool
	ValidateDomain(string) bool
	ValidateAudiences(string) bool
	VerifySignature(string, string, string) error
}

// SigningConfig holds everything needed to mint and check session tokens.
type SigningConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Lifetime time.Duration
}

// Check reports which required values are missing.
func (c SigningConfig) Check() error {
	var missing []string
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.Issuer == "" {
		missing = append(missing, "issuer")
	}
	if c.Audience == "" {
		missing = append(missing, "audience")
	}
	if c.Lifetime <= 0 {
		missing = append(missing, "lifetime")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errSigningMisconfigured, strings.Join(missing, ", "))
	}
	return nil
}

type Option func(*Server)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func InitServer(
	config SigningConfig,
	opts ...Option,
) (
	Issuer,
	Validator,
	error,
) {
	if err := config.Check(); err != nil {
		return nil, nil, err
	}
	server := &Server{
		secret:   []byte(config.Secret),
		issuer:   config.Issuer,
		audience: config.Audience,
		lifetime: config.Lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(server)
	}
	return server, server, nil
}

func InitClient(
	secret string,
	issuerDomain string,
	validAudience string,
) (
	Validator,
	error,
) {
	if secret == "" || issuerDomain == "" || validAudience == "" {
		return nil, fmt.Errorf("%w: client needs secret, issuer and audience", errSigningMisconfigured)
	}
	return &Client{
		secret:        []byte(secret),
		issuerDomain:  issuerDomain,
		validAudience: validAudience,
	}, nil
}

func buildMessage(encHeader string, encPayload string) string {
	return fmt.Sprintf("%s.%s", encHeader, encPayload)
}

func encodeSegment(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

func signMessage(message string, secret []byte) (string, error) {
	sig, err := signingMethod.Sign(message, secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %v", err)
	}
	return encodeSegment(sig), nil
}

func encodeJWTSection[T any](section T) (string, error) {
	sectionJSON, err := json.Marshal(section)
	if err != nil {
		return "", fmt.Errorf("json marshal failure: %v", err)
	}
	return encodeSegment(sectionJSON), nil
}

func encodeToken(header *SessionHeader, payload *SessionPayload, issuer Issuer) (string, error) {
	encHeader, err := encodeJWTSection(header)
	if err != nil {
		return "", fmt.Errorf("failed to encode header: %v", err)
	}
	encPayload, err := encodeJWTSection(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %v", err)
	}
	message := buildMessage(encHeader, encPayload)
	encSignature, err := issuer.SignMessage(message)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s", message, encSignature), nil
}

func decodeJWTSection[T any](str string, value *T) error {
	bytes, err := base64.RawURLEncoding.DecodeString(str)
	if err != nil {
		return fmt.Errorf("invalid base64 encoding: %v", err)
	}
	err = json.Unmarshal(bytes, value)
	if err != nil {
		return fmt.Errorf("not valid JSON: %v", err)
	}
	return nil
}

func validateStructure(tokenStr string) (
	header string,
	payload string,
	signature string,
	err error,
) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != sessionTokenSegmentCount {
		err = fmt.Errorf("JWT expected three parts, found %d", len(parts))
		return
	}
	header = parts[0]
	payload = parts[1]
	signature = parts[2]
	return
}

func verifyHeader(header *SessionHeader) error {
	if header.Type != sessionTokenType {
		return fmt.Errorf("illegal type: %s", header.Type)
	}
	if header.Algorithm != sessionTokenAlgorithm {
		return fmt.Errorf("illegal algorithm: %s", header.Algorithm)
	}
	return nil
}

func verifySignature(
	encHeader string,
	encPayload string,
	encSignature string,
	secret []byte,
) error {
	signature, err := base64.RawURLEncoding.DecodeString(encSignature)
	if err != nil {
		return fmt.Errorf("invalid base64 encoding: %v", err)
	}

	// hmac.Equal under the hood, so the comparison is constant time
	err = signingMethod.Verify(buildMessage(encHeader, encPayload), signature, secret)
	if err != nil {
		return fmt.Errorf("verification failed: %v", err)
	}

	return nil
}

func decodeToken(tokenStr string, validator Validator, now time.Time) (
	*SessionHeader,
	*SessionPayload,
	*validateError,
) {
	encHeader, encPayload, encSignature, err := validateStructure(tokenStr)
	if err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token malformed: %v", err),
			err:     errTokenMalformed,
		}
	}

	header := &SessionHeader{}
	if err := decodeJWTSection(encHeader, header); err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token header malformed: %v", err),
			err:     errTokenMalformed,
		}
	}

	if err := verifyHeader(header); err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token header illegal: %v", err),
			err:     errTokenBadSignature,
		}
	}

	if err := validator.VerifySignature(encHeader, encPayload, encSignature); err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token signature illegal: %v", err),
			err:     errTokenBadSignature,
		}
	}

	payload := &SessionPayload{}
	if err := decodeJWTSection(encPayload, payload); err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token payload malformed: %v", err),
			err:     errTokenMalformed,
		}
	}

	if err := header.validate(validator, now); err != nil {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token claims invalid: %v", err),
			err:     err,
		}
	}

	if payload.UID != header.Subject {
		return nil, nil, &validateError{
			context: fmt.Sprintf("token payload invalid: %v", errSubjectMismatch),
			err:     errTokenMalformed,
		}
	}

	return header, payload, nil
}
