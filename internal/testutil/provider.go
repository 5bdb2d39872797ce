package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// Provider is a fake token info endpoint. Tokens it has not been told
// about are answered with an invalid_token error, as the real one does.
type Provider struct {
	server *httptest.Server
	calls  atomic.Int64

	mu        sync.Mutex
	responses map[string]providerResponse
}

type providerResponse struct {
	status int
	body   string
}

func NewProvider(t *testing.T) *Provider {
	t.Helper()
	p := &Provider{responses: map[string]providerResponse{}}
	p.server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.server.Close)
	return p
}

func (p *Provider) URL() string {
	return p.server.URL + "/oauth2/v1/tokeninfo"
}

func (p *Provider) Client() *http.Client {
	return p.server.Client()
}

// Calls reports how many requests reached the provider.
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}

// Accept makes the provider vouch for token as belonging to email.
func (p *Provider) Accept(token string, email string) {
	p.Respond(token, http.StatusOK, `{"email":"`+email+`","verified_email":true,"expires_in":3599}`)
}

// Respond sets a raw response for token.
func (p *Provider) Respond(token string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[token] = providerResponse{status: status, body: body}
}

func (p *Provider) serve(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)

	p.mu.Lock()
	res, ok := p.responses[r.URL.Query().Get("access_token")]
	p.mu.Unlock()
	if !ok {
		res = providerResponse{
			status: http.StatusBadRequest,
			body:   `{"error":"invalid_token","error_description":"Invalid Value"}`,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	_, _ = w.Write([]byte(res.body))
}
