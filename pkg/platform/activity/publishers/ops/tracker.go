// Package ops provides a best-effort, sampled activity tracker for
// high-volume operational events.
//
// Tracking never fails the calling operation: events may be dropped by the
// sampler or by the circuit breaker when the store is unhealthy. Use for
// routine recording activity (responses, scope edits, finding field updates).
package ops

import (
	"context"
	"log/slog"
	"time"

	"conforma/pkg/platform/activity"
)

// Tracker emits ops events with sampling and store-outage protection.
type Tracker struct {
	store   activity.Store
	sampler *Sampler
	cb      *CircuitBreaker
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures the Tracker.
type Option func(*Tracker)

// WithLogger sets a logger for drop/failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithSampler sets the event sampler. Without one, every event is kept.
func WithSampler(s *Sampler) Option {
	return func(t *Tracker) {
		t.sampler = s
	}
}

// WithCircuitBreaker sets the store-outage circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(t *Tracker) {
		t.cb = cb
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// New creates an ops tracker.
func New(store activity.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records an ops event. Fire-and-forget: sampling, circuit breaking and
// persistence failures all result in a silently dropped event (surfaced only
// through metrics and debug logs).
func (t *Tracker) Track(ctx context.Context, event activity.OpsEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if t.sampler != nil && !t.sampler.ShouldSample(event.Action) {
		if t.metrics != nil {
			t.metrics.IncSampled()
		}
		return
	}

	if t.cb != nil && !t.cb.Allow() {
		if t.metrics != nil {
			t.metrics.IncCircuitBreakerDropped()
			t.metrics.SetCircuitBreakerState(true)
		}
		return
	}

	if err := t.store.Append(ctx, event.ToEvent()); err != nil {
		if t.cb != nil {
			t.cb.RecordFailure()
		}
		if t.metrics != nil {
			t.metrics.IncPersistFailures()
			if t.cb != nil {
				t.metrics.SetCircuitBreakerState(t.cb.IsOpen())
			}
		}
		if t.logger != nil {
			t.logger.DebugContext(ctx, "ops event dropped",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		return
	}

	if t.cb != nil {
		t.cb.RecordSuccess()
	}
	if t.metrics != nil {
		t.metrics.IncTracked()
		if t.cb != nil {
			t.metrics.SetCircuitBreakerState(false)
		}
	}
}
