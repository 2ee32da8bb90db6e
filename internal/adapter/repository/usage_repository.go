package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type usageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUsageRepository creates a repository over the catalogue's view_stat table
func NewUsageRepository(db *gorm.DB, logger *zap.Logger) domainRepo.UsageRepository {
	return &usageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *usageRepository) WatchTimeByCoach(ctx context.Context, from, to time.Time) ([]model.UsageAggregate, error) {
	var rows []struct {
		CoachID      uuid.UUID
		WatchSeconds int64
	}

	err := conn(ctx, r.db).
		Table("view_stat AS vs").
		Select("c.coach_id AS coach_id, COALESCE(SUM(vs.total_playing_time), 0)::bigint AS watch_seconds").
		Joins("JOIN course AS c ON c.id = vs.course_id").
		Where("vs.date >= ? AND vs.date < ?", from, to).
		Group("c.coach_id").
		Order("c.coach_id").
		Scan(&rows).Error
	if err != nil {
		r.logger.Error("Failed to aggregate watch time",
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return nil, fmt.Errorf("failed to aggregate watch time: %w", err)
	}

	usage := make([]model.UsageAggregate, 0, len(rows))
	for _, row := range rows {
		usage = append(usage, model.UsageAggregate{CoachID: row.CoachID, WatchSeconds: row.WatchSeconds})
	}
	return usage, nil
}
