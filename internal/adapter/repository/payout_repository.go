package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPayoutPageSize = 50

type payoutRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PayoutRepository {
	return &payoutRepository{
		db:     db,
		logger: logger,
	}
}

func (r *payoutRepository) RunExists(ctx context.Context, period string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&model.PayoutRun{}).
		Where("period = ?", period).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to check payout run",
			zap.String("period", period),
			zap.Error(err))
		return false, fmt.Errorf("failed to check payout run: %w", err)
	}
	return count > 0, nil
}

// SaveRun inserts the run marker and upserts one record per coach. A second
// run for the same period fails on the marker's unique index.
func (r *payoutRepository) SaveRun(ctx context.Context, run *model.PayoutRun, records []*model.PayoutRecord) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainErrors.ErrPayoutPeriodComputed
			}
			return fmt.Errorf("failed to create payout run: %w", err)
		}

		if len(records) == 0 {
			return nil
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "coach_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "watch_seconds", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "payout_records", Name: "is_transferred"}, Value: false},
			}},
		}).Create(&records).Error
		if err != nil {
			return fmt.Errorf("failed to create payout records: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrPayoutPeriodComputed) {
			r.logger.Error("Failed to save payout run",
				zap.String("period", run.Period),
				zap.Int("records", len(records)),
				zap.Error(err))
		}
		return err
	}
	return nil
}

func (r *payoutRepository) GetRun(ctx context.Context, period string) (*model.PayoutRun, error) {
	var run model.PayoutRun
	err := conn(ctx, r.db).Where("period = ?", period).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payout run",
			zap.String("period", period),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payout run: %w", err)
	}
	return &run, nil
}

func (r *payoutRepository) List(ctx context.Context, filter domainRepo.PayoutFilter) ([]*model.PayoutRecord, error) {
	query := conn(ctx, r.db).Model(&model.PayoutRecord{})
	if filter.CoachID != nil {
		query = query.Where("coach_id = ?", *filter.CoachID)
	}
	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if filter.IsTransferred != nil {
		query = query.Where("is_transferred = ?", *filter.IsTransferred)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPayoutPageSize
	}

	var records []*model.PayoutRecord
	err := query.
		Order("period DESC, amount DESC, id ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		r.logger.Error("Failed to list payout records", zap.Error(err))
		return nil, fmt.Errorf("failed to list payout records: %w", err)
	}
	return records, nil
}

func (r *payoutRepository) FindByID(ctx context.Context, id int64) (*model.PayoutRecord, error) {
	var record model.PayoutRecord
	err := conn(ctx, r.db).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payout record",
			zap.Int64("payout_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payout record: %w", err)
	}
	return &record, nil
}

// MarkTransferred flips an untransferred record; ErrPayoutAlreadyTransferred otherwise.
func (r *payoutRepository) MarkTransferred(ctx context.Context, id int64, at time.Time) error {
	result := conn(ctx, r.db).
		Model(&model.PayoutRecord{}).
		Where("id = ? AND is_transferred = ?", id, false).
		Updates(map[string]interface{}{
			"is_transferred": true,
			"transferred_at": at,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		r.logger.Error("Failed to mark payout transferred",
			zap.Int64("payout_id", id),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark payout transferred: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainErrors.ErrPayoutAlreadyTransferred
	}
	return nil
}
