package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueuePushPop(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, Job{ID: "a"}))
	require.NoError(t, q.Push(ctx, Job{ID: "b"}))
	assert.ErrorIs(t, q.Push(ctx, Job{ID: "c"}), ErrQueueFull)

	job, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)
}

func TestMemoryQueueDrainsAfterClose(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()
	require.NoError(t, q.Push(ctx, Job{ID: "a"}))
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Push(ctx, Job{ID: "b"}), ErrQueueClosed)

	job, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)

	_, err = q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueuePopHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobCodecRoundTrip(t *testing.T) {
	job := Job{
		ID:         "j1",
		TicketID:   "t1",
		Kind:       KindStatusChanged,
		Audience:   AudienceChannel,
		Chat:       ChatAddress{ChatID: "-100", ThreadID: "7"},
		Text:       "🔧 moved",
		Attempt:    2,
		EnqueuedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
	}

	data, err := EncodeJob(job)
	require.NoError(t, err)
	decoded, err := DecodeJob(data)
	require.NoError(t, err)

	assert.True(t, job.EnqueuedAt.Equal(decoded.EnqueuedAt))
	decoded.EnqueuedAt = job.EnqueuedAt
	assert.Equal(t, job, decoded)

	_, err = DecodeJob([]byte{0xff})
	assert.Error(t, err)
}
