package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"git.sr.ht/~jakintosh/loginhandler/internal/identity"
	"git.sr.ht/~jakintosh/loginhandler/internal/metrics"
)

func TestObserveValidation(t *testing.T) {
	t.Parallel()
	m := metrics.New()

	m.ObserveValidation(identity.OutcomeVerified)
	m.ObserveValidation(identity.OutcomeVerified)
	m.ObserveValidation(identity.OutcomeRejected)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IdentityChecks.WithLabelValues("verified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityChecks.WithLabelValues("rejected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IdentityChecks.WithLabelValues("malformed")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	t.Parallel()

	// two instances must not panic on duplicate registration
	a := metrics.New()
	b := metrics.New()
	a.SessionsIssued.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SessionsIssued))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionsIssued))
}
