package lock

import (
	"context"
	"sync"
)

// Locker serializes work on a key across goroutines, or across replicas for
// the redis implementation.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned release
	// func must be called exactly once.
	Lock(ctx context.Context, key string) (release func(), err error)
}

// TicketKey namespaces ticket lock keys.
func TicketKey(ticketID string) string {
	return "taskboard:lock:ticket:" + ticketID
}

type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]*memoryLock
}

type memoryLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns an in-process Locker.
func NewMemoryLocker() Locker {
	return &memoryLocker{locks: make(map[string]*memoryLock)}
}

func (l *memoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &memoryLock{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, entry)
		return func() {}, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.unref(key, entry)
		})
	}, nil
}

func (l *memoryLocker) unref(key string, entry *memoryLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}
