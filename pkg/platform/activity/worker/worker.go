// Package worker ships activity events from the transactional outbox to
// Kafka. Events are published to one topic per category
// (<prefix>.compliance, <prefix>.security, <prefix>.operations) with the
// outbox row ID as the message key, so consumers can deduplicate via
// ON CONFLICT inserts.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conforma/pkg/platform/activity"
)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 100
)

// Entry is one unpublished outbox row.
type Entry struct {
	ID        uuid.UUID
	Action    string
	Payload   []byte
	CreatedAt time.Time
}

// Source reads and acknowledges outbox rows.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Entry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

// Producer publishes a message to a Kafka topic.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Worker polls the outbox and relays entries to Kafka.
// At-least-once: an entry is marked published only after the produce
// succeeds, so a crash between the two replays the entry.
type Worker struct {
	source      Source
	producer    Producer
	topicPrefix string
	logger      *slog.Logger

	interval  time.Duration
	batchSize int
	metrics   *Metrics
}

// Option configures the Worker.
type Option func(*Worker)

// WithInterval sets the outbox poll interval.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize sets the maximum number of entries relayed per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// NewWorker creates an outbox relay worker.
func NewWorker(source Source, producer Producer, topicPrefix string, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		source:      source,
		producer:    producer,
		topicPrefix: topicPrefix,
		logger:      logger,
		interval:    defaultInterval,
		batchSize:   defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Relay errors are logged and retried on
// the next tick; they never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.relayBatch(ctx)
		}
	}
}

// relayBatch drains the outbox until a fetch returns fewer entries than the
// batch size. A produce failure stops the pass; the entry stays unpublished
// and leads the next one.
func (w *Worker) relayBatch(ctx context.Context) {
	for {
		entries, err := w.source.FetchUnpublished(ctx, w.batchSize)
		if err != nil {
			w.logger.ErrorContext(ctx, "fetch outbox entries", "error", err)
			return
		}
		if len(entries) == 0 {
			return
		}

		for _, entry := range entries {
			topic := w.topicFor(entry.Action)
			if err := w.producer.Produce(ctx, topic, []byte(entry.ID.String()), entry.Payload); err != nil {
				if w.metrics != nil {
					w.metrics.IncPublishFailures()
				}
				w.logger.ErrorContext(ctx, "publish outbox entry",
					"entry_id", entry.ID,
					"topic", topic,
					"error", err,
				)
				return
			}
			if err := w.source.MarkPublished(ctx, entry.ID); err != nil {
				w.logger.ErrorContext(ctx, "mark outbox entry published",
					"entry_id", entry.ID,
					"error", err,
				)
				return
			}
			if w.metrics != nil {
				w.metrics.IncPublished()
			}
		}

		if len(entries) < w.batchSize {
			return
		}
	}
}

// Topics returns every topic this worker publishes to, for topic creation at
// startup.
func (w *Worker) Topics() []string {
	return []string{
		w.topicFor(string(activity.ActionAuditApproved)),
		w.topicFor(string(activity.ActionPortalTokenIssued)),
		w.topicFor(string(activity.ActionResponseRecorded)),
	}
}

func (w *Worker) topicFor(action string) string {
	return w.topicPrefix + "." + string(activity.Action(action).Category())
}
