// Package metrics holds the Prometheus collectors of the admissions service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	NumbersIssued     *prometheus.CounterVec
	AllocationErrors  *prometheus.CounterVec
	AllocationLatency *prometheus.HistogramVec
	InsertRetries     prometheus.Counter
	RetriesExhausted  prometheus.Counter
	CandidatesCreated prometheus.Counter
	OutboxDelivered   *prometheus.CounterVec
}

// New creates and registers all metrics with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NumbersIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_sequence_numbers_issued_total",
			Help: "Numbers issued per sequence",
		}, []string{"sequence"}),
		AllocationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_sequence_allocation_errors_total",
			Help: "Failed allocation calls per sequence",
		}, []string{"sequence"}),
		AllocationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admissions_sequence_allocation_seconds",
			Help:    "Latency of the atomic counter increment",
			Buckets: prometheus.DefBuckets,
		}, []string{"sequence", "kind"}),
		InsertRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "admissions_candidate_insert_retries_total",
			Help: "Candidate inserts retried after a duplicate registration number",
		}),
		RetriesExhausted: f.NewCounter(prometheus.CounterOpts{
			Name: "admissions_candidate_insert_retries_exhausted_total",
			Help: "Candidate creations that failed after the retry budget ran out",
		}),
		CandidatesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "admissions_candidates_created_total",
			Help: "Candidates persisted",
		}),
		OutboxDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "admissions_outbox_messages_total",
			Help: "Outbox messages handled by the worker, by event type and result",
		}, []string{"event_type", "result"}),
	}
}

// ObserveIssued records count numbers issued for sequence.
func (m *Metrics) ObserveIssued(sequence string, count int) {
	if m == nil {
		return
	}
	m.NumbersIssued.WithLabelValues(sequence).Add(float64(count))
}

// ObserveAllocationError records a failed allocation.
func (m *Metrics) ObserveAllocationError(sequence string) {
	if m == nil {
		return
	}
	m.AllocationErrors.WithLabelValues(sequence).Inc()
}

// ObserveLatency records how long one store round-trip took.
func (m *Metrics) ObserveLatency(sequence, kind string, seconds float64) {
	if m == nil {
		return
	}
	m.AllocationLatency.WithLabelValues(sequence, kind).Observe(seconds)
}

// IncInsertRetry counts one duplicate-key retry.
func (m *Metrics) IncInsertRetry() {
	if m == nil {
		return
	}
	m.InsertRetries.Inc()
}

// IncRetriesExhausted counts one creation that gave up.
func (m *Metrics) IncRetriesExhausted() {
	if m == nil {
		return
	}
	m.RetriesExhausted.Inc()
}

// IncCandidatesCreated counts one persisted candidate.
func (m *Metrics) IncCandidatesCreated() {
	if m == nil {
		return
	}
	m.CandidatesCreated.Inc()
}

// ObserveOutbox records one handled outbox message. result is
// "published", "retry" or "failed".
func (m *Metrics) ObserveOutbox(eventType, result string) {
	if m == nil {
		return
	}
	m.OutboxDelivered.WithLabelValues(eventType, result).Inc()
}
