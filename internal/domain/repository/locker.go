package repository

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotAcquired is returned by Locker when the key is held elsewhere.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker hands out locks shared by every instance of the service.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}
