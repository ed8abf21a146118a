package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document review engine.
type Metrics struct {
	// Reviews submitted, by decision
	Reviews *prometheus.CounterVec

	// Documentation quality score distribution
	DQS prometheus.Histogram

	// Suggestions emitted, by suggested type
	Suggestions *prometheus.CounterVec

	// Suggestion resolutions, by outcome
	Resolutions *prometheus.CounterVec
}

// New creates a new Metrics instance with all document review metrics
// registered.
func New() *Metrics {
	return &Metrics{
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_document_reviews_total",
			Help: "Total document reviews submitted, by decision",
		}, []string{"decision"}), // decision: "ACCEPT", "REJECT"

		DQS: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "conforma_document_review_dqs_percent",
			Help:    "Documentation quality score distribution",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		Suggestions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_suggested_findings_total",
			Help: "Total suggested findings emitted, by suggested type",
		}, []string{"type"}),

		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_suggestion_resolutions_total",
			Help: "Total suggestion resolutions, by outcome",
		}, []string{"outcome"}), // outcome: "confirmed_finding", "confirmed_observation", "dismissed"
	}
}

// ObserveReview records a submitted review and its score.
func (m *Metrics) ObserveReview(decision string, dqsPercent int) {
	if m != nil {
		m.Reviews.WithLabelValues(decision).Inc()
		m.DQS.Observe(float64(dqsPercent))
	}
}

// IncrementSuggested records an emitted suggestion.
func (m *Metrics) IncrementSuggested(suggestedType string) {
	if m != nil {
		m.Suggestions.WithLabelValues(suggestedType).Inc()
	}
}

// IncrementResolved records a suggestion resolution.
func (m *Metrics) IncrementResolved(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}
