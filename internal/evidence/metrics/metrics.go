package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the evidence workflow.
type Metrics struct {
	// Evidence items submitted, by channel
	Submitted *prometheus.CounterVec

	// Review decisions, by outcome
	Reviewed *prometheus.CounterVec

	// Portal tokens issued
	TokensIssued prometheus.Counter
}

// New creates a new Metrics instance with all evidence metrics registered.
func New() *Metrics {
	return &Metrics{
		Submitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_evidence_items_submitted_total",
			Help: "Total evidence items submitted, by channel",
		}, []string{"channel"}), // channel: "internal", "portal"

		Reviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_evidence_reviews_total",
			Help: "Total evidence review decisions, by outcome",
		}, []string{"outcome"}), // outcome: "ACCEPTED", "REJECTED"

		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conforma_evidence_portal_tokens_issued_total",
			Help: "Total portal tokens issued",
		}),
	}
}

// IncrementSubmitted records a submitted evidence item.
func (m *Metrics) IncrementSubmitted(channel string) {
	if m != nil {
		m.Submitted.WithLabelValues(channel).Inc()
	}
}

// IncrementReviewed records a review decision.
func (m *Metrics) IncrementReviewed(outcome string) {
	if m != nil {
		m.Reviewed.WithLabelValues(outcome).Inc()
	}
}

// IncrementTokensIssued records a portal token issue.
func (m *Metrics) IncrementTokensIssued() {
	if m != nil {
		m.TokensIssued.Inc()
	}
}
