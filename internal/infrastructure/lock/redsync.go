// Package lock provides Redis-backed distributed locks.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "billing:lock:"

// RedsyncLocker hands out single-try redsync mutexes
type RedsyncLocker struct {
	rs     *redsync.Redsync
	logger *zap.Logger
}

// NewRedsyncLocker creates a locker on top of an existing Redis client
func NewRedsyncLocker(client *redis.Client, logger *zap.Logger) *RedsyncLocker {
	return &RedsyncLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		logger: logger,
	}
}

var _ repository.Locker = (*RedsyncLocker)(nil)

// Acquire tries once; a held key yields repository.ErrLockNotAcquired.
func (l *RedsyncLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (repository.Lock, error) {
	mutex := l.rs.NewMutex(
		keyPrefix+key,
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, repository.ErrLockNotAcquired
		}
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	l.logger.Debug("Lock acquired",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return &redsyncLock{mutex: mutex}, nil
}

type redsyncLock struct {
	mutex *redsync.Mutex
}

func (l *redsyncLock) Release(ctx context.Context) error {
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.mutex.Name(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s expired before release", l.mutex.Name())
	}
	return nil
}
