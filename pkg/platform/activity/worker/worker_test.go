package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conforma/internal/platform/logger"
	"conforma/pkg/platform/activity"
)

type fakeSource struct {
	mu        sync.Mutex
	entries   []Entry
	published map[uuid.UUID]bool
	fetchErr  error
}

func newFakeSource(entries ...Entry) *fakeSource {
	return &fakeSource{entries: entries, published: make(map[uuid.UUID]bool)}
}

func (s *fakeSource) FetchUnpublished(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var pending []Entry
	for _, e := range s.entries {
		if !s.published[e.ID] {
			pending = append(pending, e)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *fakeSource) MarkPublished(_ context.Context, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[entryID] = true
	return nil
}

func (s *fakeSource) publishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type recordingProducer struct {
	mu       sync.Mutex
	messages []producedMessage
	failWith error
}

type producedMessage struct {
	topic string
	key   string
	value []byte
}

func (p *recordingProducer) Produce(_ context.Context, topic string, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.messages = append(p.messages, producedMessage{topic: topic, key: string(key), value: value})
	return nil
}

func (p *recordingProducer) produced() []producedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]producedMessage{}, p.messages...)
}

func entryFor(action activity.Action) Entry {
	return Entry{
		ID:        uuid.New(),
		Action:    string(action),
		Payload:   []byte(`{"Action":"` + string(action) + `"}`),
		CreatedAt: time.Now(),
	}
}

func TestWorker_RelaysByCategory(t *testing.T) {
	source := newFakeSource(
		entryFor(activity.ActionAuditApproved),
		entryFor(activity.ActionPortalTokenIssued),
		entryFor(activity.ActionResponseRecorded),
	)
	producer := &recordingProducer{}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"))

	w.relayBatch(context.Background())

	messages := producer.produced()
	require.Len(t, messages, 3)
	assert.Equal(t, "conforma.activity.compliance", messages[0].topic)
	assert.Equal(t, "conforma.activity.security", messages[1].topic)
	assert.Equal(t, "conforma.activity.operations", messages[2].topic)
	assert.Equal(t, 3, source.publishedCount())
}

func TestWorker_UsesEntryIDAsKey(t *testing.T) {
	entry := entryFor(activity.ActionAuditClosed)
	source := newFakeSource(entry)
	producer := &recordingProducer{}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"))

	w.relayBatch(context.Background())

	messages := producer.produced()
	require.Len(t, messages, 1)
	assert.Equal(t, entry.ID.String(), messages[0].key)
	assert.Equal(t, entry.Payload, messages[0].value)
}

func TestWorker_ProduceFailureLeavesEntryUnpublished(t *testing.T) {
	entry := entryFor(activity.ActionAuditApproved)
	source := newFakeSource(entry)
	producer := &recordingProducer{failWith: errors.New("broker unavailable")}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"))

	w.relayBatch(context.Background())
	assert.Equal(t, 0, source.publishedCount(), "failed publish must not ack the entry")

	// Broker recovers; the next pass relays the same entry.
	producer.mu.Lock()
	producer.failWith = nil
	producer.mu.Unlock()

	w.relayBatch(context.Background())
	assert.Equal(t, 1, source.publishedCount())
	require.Len(t, producer.produced(), 1)
}

func TestWorker_NeverRepublishesAckedEntries(t *testing.T) {
	source := newFakeSource(entryFor(activity.ActionAuditApproved))
	producer := &recordingProducer{}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"))

	w.relayBatch(context.Background())
	w.relayBatch(context.Background())

	assert.Len(t, producer.produced(), 1, "acked entries must not be republished")
}

func TestWorker_FetchErrorDoesNotPanic(t *testing.T) {
	source := newFakeSource()
	source.fetchErr = errors.New("db down")
	producer := &recordingProducer{}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"))

	w.relayBatch(context.Background())
	assert.Empty(t, producer.produced())
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	source := newFakeSource()
	producer := &recordingProducer{}
	w := NewWorker(source, producer, "conforma.activity", logger.New("error"), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
