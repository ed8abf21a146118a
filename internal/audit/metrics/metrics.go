package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit module.
type Metrics struct {
	// Audits created, by audit type
	AuditCreated *prometheus.CounterVec

	// Lifecycle transitions by target status
	StatusTransition *prometheus.CounterVec

	// Score computation latency
	ScoreDuration prometheus.Histogram
}

// New creates a new Metrics instance with all audit module metrics registered.
func New() *Metrics {
	return &Metrics{
		AuditCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_audits_created_total",
			Help: "Total number of audits created, by audit type",
		}, []string{"type"}), // type: "INTERNAL", "EXTERNAL"

		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_audit_transitions_total",
			Help: "Total audit lifecycle transitions by target status",
		}, []string{"to"}),

		ScoreDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "conforma_audit_score_duration_seconds",
			Help:    "Duration of compliance score computation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a successful audit creation.
func (m *Metrics) IncrementCreated(auditType string) {
	if m != nil {
		m.AuditCreated.WithLabelValues(auditType).Inc()
	}
}

// IncrementTransition records a lifecycle transition into the given status.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.StatusTransition.WithLabelValues(to).Inc()
	}
}

// ObserveScore records the duration of a score computation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveScore(start time.Time) {
	if m != nil {
		m.ScoreDuration.Observe(time.Since(start).Seconds())
	}
}
