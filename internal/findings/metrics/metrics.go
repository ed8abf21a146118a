package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the findings register.
type Metrics struct {
	// Findings opened, by severity
	Opened *prometheus.CounterVec

	// Findings closed, by severity
	Closed *prometheus.CounterVec
}

// New creates a new Metrics instance with all findings metrics registered.
func New() *Metrics {
	return &Metrics{
		Opened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_findings_opened_total",
			Help: "Total findings opened, by severity",
		}, []string{"severity"}), // severity: "MINOR_NC", "MAJOR_NC"

		Closed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "conforma_findings_closed_total",
			Help: "Total findings closed, by severity",
		}, []string{"severity"}),
	}
}

// IncrementOpened records a newly registered finding.
func (m *Metrics) IncrementOpened(severity string) {
	if m != nil {
		m.Opened.WithLabelValues(severity).Inc()
	}
}

// IncrementClosed records a finding reaching CLOSED.
func (m *Metrics) IncrementClosed(severity string) {
	if m != nil {
		m.Closed.WithLabelValues(severity).Inc()
	}
}
