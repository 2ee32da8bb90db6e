package repository

import (
	"context"
	"time"
)

// OrderNumberRepository stores issued order numbers.
type OrderNumberRepository interface {
	// LockDay serialises issuers of the same day until the transaction ends.
	LockDay(ctx context.Context, day string) error
	// LatestWithPrefix returns the greatest issued number starting with prefix, or "".
	LatestWithPrefix(ctx context.Context, prefix string) (string, error)
	Insert(ctx context.Context, number string, issuedAt time.Time) error
}
