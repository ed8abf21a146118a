// Package compliance provides a fail-closed activity publisher for
// regulatory events.
//
// The publisher emits compliance events with synchronous, fail-closed
// semantics. Events are written to the outbox and the caller blocks until the
// write succeeds. If the write fails, an error is returned and the calling
// operation MUST fail.
//
// Use for: audit lifecycle decisions, finding registrations and closures,
// evidence verdicts, suggestion resolutions.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"conforma/pkg/platform/activity"
)

// Publisher emits compliance events with fail-closed semantics.
// All writes are synchronous - the caller blocks until persistence succeeds or fails.
type Publisher struct {
	store   activity.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher.
// The store must be outbox-backed for guaranteed delivery.
func New(store activity.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event to the activity store.
// Returns error if persistence fails - the caller MUST fail its operation.
//
// This is a fail-closed operation: if the trail cannot be persisted,
// the business operation must not proceed.
func (p *Publisher) Emit(ctx context.Context, event activity.ComplianceEvent) error {
	start := time.Now()

	// Validate required fields
	if event.CompanyID.IsNil() {
		return fmt.Errorf("compliance event requires CompanyID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Synchronous write - this is the critical path
	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance trail write failed",
				"action", event.Action,
				"company_id", event.CompanyID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance trail persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted()
	}

	return nil
}

// Close is a no-op for the synchronous compliance publisher.
func (p *Publisher) Close() error {
	return nil
}
