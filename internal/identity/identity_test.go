package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
)

type staticEndpoint identity.Endpoint

func (e staticEndpoint) Endpoint() identity.Endpoint { return identity.Endpoint(e) }

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []identity.Outcome
}

func (o *recordingObserver) ObserveValidation(outcome identity.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

// fakeProvider answers every token info request with status and body,
// counting calls and remembering the last access_token it saw.
type fakeProvider struct {
	server    *httptest.Server
	calls     atomic.Int32
	lastToken atomic.Value
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.calls.Add(1)
		p.lastToken.Store(r.URL.Query().Get("access_token"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(p.server.Close)
	return p
}

func newValidator(p *fakeProvider, observer identity.Observer) *identity.Validator {
	return identity.NewValidator(
		p.server.Client(),
		staticEndpoint{URL: p.server.URL + "/oauth2/v1/tokeninfo", Timeout: time.Second},
		observer,
	)
}

func TestValidate_Success(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{"email":"a@b.com","expires_in":3599}`)
	observer := &recordingObserver{}
	validator := newValidator(provider, observer)

	claims, err := validator.Validate(context.Background(), "ya29.token")
	require.NoError(t, err)

	// the token is sent as the access_token query parameter
	assert.Equal(t, "ya29.token", provider.lastToken.Load())
	assert.True(t, claims.Verified())
	assert.Equal(t, "a@b.com", claims.Email)
	assert.EqualValues(t, 3599, claims.Raw["expires_in"])
	assert.Equal(t, []identity.Outcome{identity.OutcomeVerified}, observer.outcomes)
}

func TestValidate_EmptyTokenMakesNoCall(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{"email":"a@b.com"}`)
	validator := newValidator(provider, nil)

	claims, err := validator.Validate(context.Background(), "")
	require.ErrorIs(t, err, identity.ErrEmptyToken)
	assert.Nil(t, claims)
	assert.Zero(t, provider.calls.Load())
}

func TestValidate_CleansTrailingCommaAndNewline(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"real newline then comma", "{\"email\":\"a@b.com\"}\n,"},
		{"literal newline then comma", `{"email":"a@b.com"}\n,`},
		{"comma then newline", "{\"email\":\"a@b.com\"},\n"},
		{"literal newlines inside", `{\n"email":"a@b.com"\n}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(t, http.StatusOK, tt.body)
			validator := newValidator(provider, nil)

			claims, err := validator.Validate(context.Background(), "token")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"email": "a@b.com"}, claims.Raw)
			assert.True(t, claims.Verified())
		})
	}
}

func TestValidate_ProviderErrorIsData(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusBadRequest, `{"error":"invalid_token"}`)
	observer := &recordingObserver{}
	validator := newValidator(provider, observer)

	// an error status is a normal outcome, not a Go error
	claims, err := validator.Validate(context.Background(), "expired")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "invalid_token"}, claims.Raw)
	assert.Equal(t, "invalid_token", claims.Error)
	assert.True(t, claims.Rejected())
	assert.False(t, claims.Verified())
	assert.Equal(t, map[string]any{"error": "invalid_token"}, claims.ErrorPayload())
	assert.Equal(t, []identity.Outcome{identity.OutcomeRejected}, observer.outcomes)
}

func TestValidate_ServerErrorWithDescription(t *testing.T) {
	t.Parallel()
	body := `{"error":"internal_failure","error_description":"try again"}`
	provider := newFakeProvider(t, http.StatusInternalServerError, body)
	validator := newValidator(provider, nil)

	claims, err := validator.Validate(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "internal_failure", claims.Error)
	assert.Equal(t, "try again", claims.ErrorDescription)
}

func TestValidate_MalformedBodyIsNotVerified(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"html", "<html>oops</html>"},
		{"empty", ""},
		{"truncated", `{"email":"a@b`},
		{"json array", `["a@b.com"]`},
		{"json null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider(t, http.StatusOK, tt.body)
			observer := &recordingObserver{}
			validator := newValidator(provider, observer)

			claims, err := validator.Validate(context.Background(), "token")
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Nil(t, claims.Raw)
			assert.False(t, claims.Verified())
			assert.False(t, claims.Rejected())
			assert.Equal(t, []identity.Outcome{identity.OutcomeMalformed}, observer.outcomes)
		})
	}
}

func TestValidate_NoEmailIsNotVerified(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{"scope":"openid"}`)
	validator := newValidator(provider, nil)

	claims, err := validator.Validate(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, claims.Verified())
}

func TestValidate_TransportError(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{}`)
	endpoint := provider.server.URL
	provider.server.Close()

	observer := &recordingObserver{}
	validator := identity.NewValidator(nil, staticEndpoint{URL: endpoint}, observer)

	claims, err := validator.Validate(context.Background(), "token")
	require.ErrorIs(t, err, identity.ErrTransport)
	assert.Nil(t, claims)
	assert.Equal(t, []identity.Outcome{identity.OutcomeTransportError}, observer.outcomes)
}

func TestValidate_Timeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	validator := identity.NewValidator(
		server.Client(),
		staticEndpoint{URL: server.URL, Timeout: 50 * time.Millisecond},
		nil,
	)

	start := time.Now()
	_, err := validator.Validate(context.Background(), "token")
	require.ErrorIs(t, err, identity.ErrTransport)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestValidate_CallerCancellation(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{"email":"a@b.com"}`)
	validator := newValidator(provider, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := validator.Validate(ctx, "token")
	require.ErrorIs(t, err, identity.ErrTransport)
	assert.Zero(t, provider.calls.Load())
}

func TestValidate_EndpointWithExistingQuery(t *testing.T) {
	t.Parallel()
	var seen atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"email":"a@b.com"}`))
	}))
	t.Cleanup(server.Close)

	validator := identity.NewValidator(server.Client(), staticEndpoint{URL: server.URL + "?alt=json"}, nil)
	_, err := validator.Validate(context.Background(), "a token&with=specials")
	require.NoError(t, err)

	// existing parameters survive and the token is escaped
	q := seen.Load().(url.Values)
	assert.Equal(t, []string{"json"}, q["alt"])
	assert.Equal(t, []string{"a token&with=specials"}, q["access_token"])
}

func recordSpans(t *testing.T) (*tracetest.SpanRecorder, identity.Option) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, identity.WithTracerProvider(tp)
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestValidate_RecordsSpan(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		body    string
		outcome identity.Outcome
	}{
		{"verified", http.StatusOK, `{"email":"a@b.com"}`, identity.OutcomeVerified},
		{"rejected", http.StatusBadRequest, `{"error":"invalid_token"}`, identity.OutcomeRejected},
		{"malformed", http.StatusOK, `not json`, identity.OutcomeMalformed},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			provider := newFakeProvider(t, tc.status, tc.body)
			recorder, withTracing := recordSpans(t)
			validator := identity.NewValidator(
				provider.server.Client(),
				staticEndpoint{URL: provider.server.URL, Timeout: time.Second},
				nil,
				withTracing,
			)

			_, err := validator.Validate(context.Background(), "token")
			require.NoError(t, err)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "identity.Validate", spans[0].Name())
			attrs := spanAttributes(spans[0])
			assert.Equal(t, int64(tc.status), attrs["http.status_code"].AsInt64())
			assert.Equal(t, string(tc.outcome), attrs["identity.outcome"].AsString())
			assert.Equal(t, codes.Unset, spans[0].Status().Code)
		})
	}
}

func TestValidate_TransportErrorMarksSpan(t *testing.T) {
	t.Parallel()
	provider := newFakeProvider(t, http.StatusOK, `{}`)
	endpoint := provider.server.URL
	provider.server.Close()

	recorder, withTracing := recordSpans(t)
	validator := identity.NewValidator(nil, staticEndpoint{URL: endpoint}, nil, withTracing)

	_, err := validator.Validate(context.Background(), "token")
	require.ErrorIs(t, err, identity.ErrTransport)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "transport", spans[0].Status().Description)
	require.NotEmpty(t, spans[0].Events())
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestValidate_EmptyTokenStartsNoSpan(t *testing.T) {
	t.Parallel()
	recorder, withTracing := recordSpans(t)
	validator := identity.NewValidator(nil, staticEndpoint{}, nil, withTracing)

	_, err := validator.Validate(context.Background(), "")
	require.ErrorIs(t, err, identity.ErrEmptyToken)
	assert.Empty(t, recorder.Started())
}
