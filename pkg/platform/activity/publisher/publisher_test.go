package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "conforma/pkg/domain"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	event := activity.Event{
		CompanyID: companyID,
		Action:    string(activity.ActionAuditCreated),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(activity.ActionAuditCreated), events[0].Action)
	assert.Equal(t, activity.CategoryOperations, events[0].Category)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	event := activity.Event{
		CompanyID: companyID,
		Action:    string(activity.ActionAuditApproved),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// Wait for async processing
	time.Sleep(100 * time.Millisecond)

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(activity.ActionAuditApproved), events[0].Action)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	companyID := id.CompanyID(uuid.New())

	// Emit multiple events
	for range 10 {
		event := activity.Event{
			CompanyID: companyID,
			Action:    string(activity.ActionResponseRecorded),
		}
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	// Close should drain all events
	pub.Close()

	events, err := store.ListByCompany(context.Background(), companyID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())

	// Fill the buffer with concurrent writes
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := activity.Event{
				CompanyID: companyID,
				Action:    string(activity.ActionResponseRecorded),
			}
			_ = pub.Emit(context.Background(), event)
		}()
	}
	wg.Wait()

	// Some events may have been dropped (buffer size 1)
	// Just verify no panic and publisher still works
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	event := activity.Event{
		CompanyID: companyID,
		Action:    string(activity.ActionAuditCreated),
		// Timestamp not set
	}

	before := time.Now()
	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	event := activity.Event{
		CompanyID: companyID,
		Action:    string(activity.ActionAuditCreated),
		Timestamp: customTime,
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_ContextCancellation(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	// Fill buffer first
	_ = pub.Emit(context.Background(), activity.Event{
		CompanyID: id.CompanyID(uuid.New()),
		Action:    string(activity.ActionAuditCreated),
	})

	// Wait for the event to be processed
	time.Sleep(50 * time.Millisecond)

	// Fill buffer again
	_ = pub.Emit(context.Background(), activity.Event{
		CompanyID: id.CompanyID(uuid.New()),
		Action:    string(activity.ActionAuditCreated),
	})

	// Try to emit with cancelled context when buffer is full
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Emit(ctx, activity.Event{
		CompanyID: id.CompanyID(uuid.New()),
		Action:    string(activity.ActionAuditCreated),
	})

	// Should either succeed (buffer not full) or return context error or buffer full error
	if err != nil {
		assert.True(t, err == context.Canceled || err == ErrBufferFull,
			"expected context.Canceled or ErrBufferFull, got: %v", err)
	}
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())

	events := []activity.Event{
		{CompanyID: companyID, Action: string(activity.ActionAuditCreated)},
		{CompanyID: companyID, Action: string(activity.ActionAuditStarted)},
		{CompanyID: companyID, Action: string(activity.ActionResponseRecorded)},
	}

	for _, event := range events {
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	result, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, string(activity.ActionAuditCreated), result[0].Action)
	assert.Equal(t, string(activity.ActionAuditStarted), result[1].Action)
	assert.Equal(t, string(activity.ActionResponseRecorded), result[2].Action)
}

func TestPublisher_CompanyIsolation(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID1 := id.CompanyID(uuid.New())
	companyID2 := id.CompanyID(uuid.New())

	err := pub.Emit(context.Background(), activity.Event{
		CompanyID: companyID1,
		Action:    string(activity.ActionAuditCreated),
	})
	require.NoError(t, err)

	err = pub.Emit(context.Background(), activity.Event{
		CompanyID: companyID2,
		Action:    string(activity.ActionAuditApproved),
	})
	require.NoError(t, err)

	events1, err := pub.List(context.Background(), companyID1)
	require.NoError(t, err)
	require.Len(t, events1, 1)
	assert.Equal(t, string(activity.ActionAuditCreated), events1[0].Action)

	events2, err := pub.List(context.Background(), companyID2)
	require.NoError(t, err)
	require.Len(t, events2, 1)
	assert.Equal(t, string(activity.ActionAuditApproved), events2[0].Action)
}
