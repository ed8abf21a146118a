package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment module.
type Metrics struct {
	// Responses recorded, by rating
	Recorded *prometheus.CounterVec

	// Corrections applied, by resulting rating
	Corrected *prometheus.CounterVec

	// Lead-auditor review comments added
	ReviewComments prometheus.Counter
}

// New creates a new Metrics instance with all assessment metrics registered.
func New() *Metrics {
	return &Metrics{
		Recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_responses_recorded_total",
			Help: "Total indicator responses recorded, by rating",
		}, []string{"rating"}),

		Corrected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_responses_corrected_total",
			Help: "Total indicator response corrections, by resulting rating",
		}, []string{"rating"}),

		ReviewComments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "conforma_review_comments_total",
			Help: "Total lead-auditor review comments added to responses",
		}),
	}
}

// IncrementRecorded records a newly recorded response.
func (m *Metrics) IncrementRecorded(rating string) {
	if m != nil {
		m.Recorded.WithLabelValues(rating).Inc()
	}
}

// IncrementCorrected records a response correction.
func (m *Metrics) IncrementCorrected(rating string) {
	if m != nil {
		m.Corrected.WithLabelValues(rating).Inc()
	}
}

// IncrementReviewComment records a lead-auditor annotation.
func (m *Metrics) IncrementReviewComment() {
	if m != nil {
		m.ReviewComments.Inc()
	}
}
