package notify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisQueueClose(t *testing.T) {
	// Nothing listens here; a closed queue must not reach the network.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisQueue(client, "taskboard:test", 50*time.Millisecond, zap.NewNop())

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.ErrorIs(t, q.Push(ctx, Job{ID: "a"}), ErrQueueClosed)

	start := time.Now()
	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRedisQueuePopHonoursContext(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	q := NewRedisQueue(client, "taskboard:test", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
