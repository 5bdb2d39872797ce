// Package metrics holds the Prometheus collectors of the login handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Registry         *prometheus.Registry
	IdentityChecks   *prometheus.CounterVec
	SessionsIssued   prometheus.Counter
	SessionsRejected prometheus.Counter
	UsersCreated     prometheus.Counter
	IssuanceFailures prometheus.Counter
}

// New creates and registers all metrics on a fresh registry, so tests and
// multiple servers in one process do not collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		IdentityChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "login_handler_identity_checks_total",
			Help: "Identity provider token checks by outcome",
		}, []string{"outcome"}),
		SessionsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "login_handler_sessions_issued_total",
			Help: "Total number of session tokens issued",
		}),
		SessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "login_handler_sessions_rejected_total",
			Help: "Total number of session tokens that failed verification",
		}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "login_handler_users_created_total",
			Help: "Total number of users created",
		}),
		IssuanceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "login_handler_issuance_failures_total",
			Help: "Session tokens that could not be issued, usually from incomplete settings",
		}),
	}
}

// ObserveValidation implements identity.Observer.
func (m *Metrics) ObserveValidation(outcome identity.Outcome) {
	m.IdentityChecks.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) SessionIssued()   { m.SessionsIssued.Inc() }
func (m *Metrics) SessionRejected() { m.SessionsRejected.Inc() }
func (m *Metrics) IssuanceFailed()  { m.IssuanceFailures.Inc() }
func (m *Metrics) UserCreated()     { m.UsersCreated.Inc() }
