// Package identity verifies third-party identity tokens against the
// identity provider's token info endpoint.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyToken = errors.New("empty identity token")
	ErrTransport  = errors.New("identity provider unreachable")
)

const (
	DefaultTimeout = 5 * time.Second

	// bodies larger than this are not token info responses
	maxResponseBytes = 1 << 20
)

const tracerName = "git.sr.ht/~jakintosh/loginhandler/internal/identity"

// Endpoint describes where and how long to ask the identity provider. It
// is read from the current settings on every call.
type Endpoint struct {
	URL     string
	Timeout time.Duration
}

// EndpointSource yields the endpoint to use for a single validation.
type EndpointSource interface {
	Endpoint() Endpoint
}

// Observer is notified of each validation outcome.
type Observer interface {
	ObserveValidation(outcome Outcome)
}

type Outcome string

const (
	OutcomeVerified       Outcome = "verified"
	OutcomeRejected       Outcome = "rejected"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeTransportError Outcome = "transport_error"
)

// Validator exchanges an opaque identity token for the claims the identity
// provider reports about it.
type Validator struct {
	client   *http.Client
	source   EndpointSource
	observer Observer
	tracer   trace.Tracer
}

type Option func(*Validator)

// WithTracerProvider overrides the global tracer provider installed by
// telemetry.Setup.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(v *Validator) {
		v.tracer = tp.Tracer(tracerName)
	}
}

func NewValidator(
	client *http.Client,
	source EndpointSource,
	observer Observer,
	opts ...Option,
) *Validator {
	if client == nil {
		client = http.DefaultClient
	}
	v := &Validator{
		client:   client,
		source:   source,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate asks the identity provider about token. A rejection by the
// provider is not an error: the provider's error payload comes back as
// Claims. An unparseable body yields empty claims. Only an empty token or
// a request that got no response at all return an error.
func (v *Validator) Validate(
	ctx context.Context,
	token string,
) (
	*Claims,
	error,
) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	ctx, span := v.tracer.Start(ctx, "identity.Validate")
	defer span.End()

	endpoint := v.source.Endpoint()
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, status, err := v.fetch(ctx, endpoint.URL, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		v.observe(OutcomeTransportError)
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	claims := parseClaims(body)
	outcome := claims.outcome()
	span.SetAttributes(attribute.String("identity.outcome", string(outcome)))
	v.observe(outcome)

	log.Ctx(ctx).Debug().
		Int("status", status).
		Str("outcome", string(outcome)).
		Msg("identity token checked")

	return claims, nil
}

func (v *Validator) fetch(
	ctx context.Context,
	endpoint string,
	token string,
) (
	[]byte,
	int,
	error,
) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: bad endpoint url: %v", ErrTransport, err)
	}
	q := target.Query()
	q.Set("access_token", token)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: couldn't build request: %v", ErrTransport, err)
	}

	res, err := v.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer res.Body.Close()

	// error statuses still carry the provider's answer in the body
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: couldn't read response: %v", ErrTransport, err)
	}
	return body, res.StatusCode, nil
}

func (v *Validator) observe(outcome Outcome) {
	if v.observer != nil {
		v.observer.ObserveValidation(outcome)
	}
}
