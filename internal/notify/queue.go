package notify

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueFull is returned when a non-blocking push finds no room.
var ErrQueueFull = errors.New("notification queue full")

// ErrQueueClosed is returned by Pop after Close once the queue is drained.
var ErrQueueClosed = errors.New("notification queue closed")

// Queue carries jobs from request handlers to the worker pool. Push must not
// block the caller for longer than the backend's enqueue timeout.
type Queue interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context) (Job, error)
	Close() error
}

type memoryQueue struct {
	jobs   chan Job
	once   sync.Once
	closed chan struct{}
}

// NewMemoryQueue returns a bounded in-process queue.
func NewMemoryQueue(size int) Queue {
	if size <= 0 {
		size = 1
	}
	return &memoryQueue{
		jobs:   make(chan Job, size),
		closed: make(chan struct{}),
	}
}

func (q *memoryQueue) Push(_ context.Context, job Job) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *memoryQueue) Pop(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case <-q.closed:
		select {
		case job := <-q.jobs:
			return job, nil
		default:
			return Job{}, ErrQueueClosed
		}
	}
}

func (q *memoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}
