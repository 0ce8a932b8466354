package lock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	logger *zap.Logger
}

// NewRedisLocker returns a Locker backed by redsync so replicas share locks.
func NewRedisLocker(client *redis.Client, expiry time.Duration, logger *zap.Logger) Locker {
	if expiry <= 0 {
		expiry = 8 * time.Second
	}
	return &redisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		logger: logger,
	}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(l.expiry))
	if err := mutex.LockContext(ctx); err != nil {
		return func() {}, err
	}
	return func() {
		// Unlock without ctx: a timed-out request must still release. An
		// unreleased lock expires on its own.
		if _, err := mutex.Unlock(); err != nil {
			l.logger.Warn("release ticket lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
