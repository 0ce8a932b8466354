package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisQueue struct {
	client         *redis.Client
	key            string
	enqueueTimeout time.Duration
	pollTimeout    time.Duration
	logger         *zap.Logger

	closed    chan struct{}
	closeOnce sync.Once
}

// NewRedisQueue returns a queue stored in a redis list so jobs survive a
// restart and can be drained by any replica.
func NewRedisQueue(client *redis.Client, key string, enqueueTimeout time.Duration, logger *zap.Logger) Queue {
	if enqueueTimeout <= 0 {
		enqueueTimeout = 500 * time.Millisecond
	}
	return &redisQueue{
		client:         client,
		key:            key,
		enqueueTimeout: enqueueTimeout,
		pollTimeout:    2 * time.Second,
		logger:         logger,
		closed:         make(chan struct{}),
	}
}

func (q *redisQueue) Push(ctx context.Context, job Job) error {
	if q.isClosed() {
		return ErrQueueClosed
	}
	data, err := EncodeJob(job)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.enqueueTimeout)
	defer cancel()
	return q.client.RPush(ctx, q.key, data).Err()
}

func (q *redisQueue) Pop(ctx context.Context) (Job, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-q.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if q.isClosed() {
			return Job{}, ErrQueueClosed
		}
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if q.isClosed() {
				return Job{}, ErrQueueClosed
			}
			return Job{}, err
		}
		// BLPOP replies with [key, value].
		job, err := DecodeJob([]byte(res[1]))
		if err != nil {
			q.logger.Error("dropping undecodable notification job", zap.Error(err))
			continue
		}
		return job, nil
	}
}

// Close stops Push and interrupts a blocked Pop with ErrQueueClosed. Jobs still in the list stay there for the next start; the client is
// owned by the caller.
func (q *redisQueue) Close() error {
	q.closeOnce.Do(func() { close(q.closed) })
	return nil
}

func (q *redisQueue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}
