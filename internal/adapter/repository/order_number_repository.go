package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderNumberRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderNumberRepository creates a new order number repository
func NewOrderNumberRepository(db *gorm.DB, logger *zap.Logger) domainRepo.OrderNumberRepository {
	return &orderNumberRepository{
		db:     db,
		logger: logger,
	}
}

// LockDay takes a transaction-scoped advisory lock keyed by the day.
// Outside a transaction the lock is released immediately.
func (r *orderNumberRepository) LockDay(ctx context.Context, day string) error {
	err := conn(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "order_number:"+day).Error
	if err != nil {
		r.logger.Error("Failed to lock order number day",
			zap.String("day", day),
			zap.Error(err))
		return fmt.Errorf("failed to lock order number day: %w", err)
	}
	return nil
}

func (r *orderNumberRepository) LatestWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := conn(ctx, r.db).
		Model(&model.OrderNumber{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		r.logger.Error("Failed to get latest order number",
			zap.String("prefix", prefix),
			zap.Error(err))
		return "", fmt.Errorf("failed to get latest order number: %w", err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *orderNumberRepository) Insert(ctx context.Context, number string, issuedAt time.Time) error {
	err := conn(ctx, r.db).Create(&model.OrderNumber{Number: number, IssuedAt: issuedAt}).Error
	if err != nil {
		r.logger.Error("Failed to record order number",
			zap.String("order_number", number),
			zap.Error(err))
		return fmt.Errorf("failed to record order number: %w", err)
	}
	return nil
}
