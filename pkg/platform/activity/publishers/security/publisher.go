// Package security provides a buffered, non-blocking activity publisher for
// portal and forensic events.
//
// Emission never blocks the request path: events land in a bounded ring
// buffer and a background flusher batches them into the store. Under
// sustained pressure the oldest events are dropped - security events are
// high-value but must never take the portal down with them.
//
// Use for: portal_token_issued, portal_token_rejected, portal_upload_received.
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"conforma/pkg/platform/activity"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultBatchSize     = 100
)

// Publisher emits security events through a ring buffer with a background flusher.
type Publisher struct {
	store  activity.Store
	buffer *RingBuffer
	logger *slog.Logger

	flushInterval time.Duration
	batchSize     int

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for flush error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithBufferSize sets the ring buffer capacity.
func WithBufferSize(capacity int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(capacity)
	}
}

// WithFlushInterval sets how often buffered events are flushed.
func WithFlushInterval(interval time.Duration) Option {
	return func(p *Publisher) {
		if interval > 0 {
			p.flushInterval = interval
		}
	}
}

// WithBatchSize sets the maximum number of events flushed per cycle.
func WithBatchSize(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// New creates a security publisher and starts its background flusher.
func New(store activity.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        NewRingBuffer(0),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Emit enqueues a security event. Never blocks and never fails; when the
// buffer is full the oldest event is dropped.
func (p *Publisher) Emit(_ context.Context, event activity.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = activity.SeverityInfo
	}
	p.buffer.Enqueue(event)
}

// Dropped returns the number of events dropped under buffer pressure.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}

func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.done:
			p.flush()
			return
		}
	}
}

// flush drains the buffer in batches. Persistence failures are logged and the
// batch is dropped; the outbox is unavailable and re-enqueueing would only
// evict newer events.
func (p *Publisher) flush() {
	for {
		batch := p.buffer.DequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(context.Background(), event.ToEvent()); err != nil {
				if p.logger != nil {
					p.logger.Error("security event flush failed",
						"action", event.Action,
						"subject", event.Subject,
						"error", err,
					)
				}
			}
		}
		if len(batch) < p.batchSize {
			return
		}
	}
}

// Close flushes remaining events and stops the background flusher.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
	return nil
}
