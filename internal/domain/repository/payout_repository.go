package repository

import (
	"context"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/google/uuid"
)

// PayoutFilter narrows payout listings; zero values match everything.
type PayoutFilter struct {
	CoachID       *uuid.UUID
	Period        string
	IsTransferred *bool
	Limit         int
	Offset        int
}

// PayoutRepository stores monthly revenue share results.
type PayoutRepository interface {
	RunExists(ctx context.Context, period string) (bool, error)
	// SaveRun writes the run marker and its records atomically.
	SaveRun(ctx context.Context, run *model.PayoutRun, records []*model.PayoutRecord) error
	GetRun(ctx context.Context, period string) (*model.PayoutRun, error)
	List(ctx context.Context, filter PayoutFilter) ([]*model.PayoutRecord, error)
	FindByID(ctx context.Context, id int64) (*model.PayoutRecord, error)
	MarkTransferred(ctx context.Context, id int64, at time.Time) error
}
