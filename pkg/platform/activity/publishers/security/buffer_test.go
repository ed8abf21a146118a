package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conforma/pkg/platform/activity"
)

func event(subject string) activity.SecurityEvent {
	return activity.SecurityEvent{
		Subject: subject,
		Action:  string(activity.ActionPortalTokenRejected),
	}
}

func TestRingBuffer_EnqueueDequeue(t *testing.T) {
	buf := NewRingBuffer(4)

	buf.Enqueue(event("a"))
	buf.Enqueue(event("b"))
	require.Equal(t, 2, buf.Len())

	batch := buf.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "a", batch[0].Subject)
	assert.Equal(t, "b", batch[1].Subject)
	assert.Equal(t, 0, buf.Len())
}

func TestRingBuffer_DropsOldestWhenFull(t *testing.T) {
	buf := NewRingBuffer(2)

	buf.Enqueue(event("a"))
	buf.Enqueue(event("b"))
	buf.Enqueue(event("c"))

	assert.Equal(t, int64(1), buf.Dropped())

	batch := buf.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Subject)
	assert.Equal(t, "c", batch[1].Subject)
}

func TestRingBuffer_TryEnqueueRefusesWhenFull(t *testing.T) {
	buf := NewRingBuffer(1)

	require.True(t, buf.TryEnqueue(event("a")))
	require.False(t, buf.TryEnqueue(event("b")))

	require.True(t, buf.DropOldest())
	require.True(t, buf.TryEnqueue(event("b")))
	assert.Equal(t, int64(1), buf.Dropped())
}

func TestRingBuffer_WrapsAround(t *testing.T) {
	buf := NewRingBuffer(3)

	for _, s := range []string{"a", "b", "c"} {
		buf.Enqueue(event(s))
	}
	_ = buf.DequeueBatch(2)
	buf.Enqueue(event("d"))
	buf.Enqueue(event("e"))

	batch := buf.DequeueBatch(10)
	require.Len(t, batch, 3)
	assert.Equal(t, "c", batch[0].Subject)
	assert.Equal(t, "d", batch[1].Subject)
	assert.Equal(t, "e", batch[2].Subject)
}
