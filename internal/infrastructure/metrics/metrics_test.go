package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveIssued("application_number", 3)
	m.ObserveIssued("application_number", 2)
	m.ObserveAllocationError("registration_number")
	m.IncInsertRetry()
	m.IncCandidatesCreated()
	m.ObserveOutbox("candidate.registered", "published")
	m.ObserveOutbox("candidate.registered", "retry")

	assert.Equal(t, 5.0, testutil.ToFloat64(m.NumbersIssued.WithLabelValues("application_number")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllocationErrors.WithLabelValues("registration_number")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsertRetries))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RetriesExhausted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxDelivered.WithLabelValues("candidate.registered", "published")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveIssued("registration_number", 1)
		m.ObserveLatency("registration_number", "single", 0.01)
		m.IncRetriesExhausted()
		m.ObserveOutbox("candidate.registered", "failed")
	})
}
