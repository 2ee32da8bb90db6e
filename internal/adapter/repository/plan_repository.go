package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	domainRepo "github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves all active plans
func (r *planRepository) GetAll(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("sort_order ASC, pricing ASC").
		Find(&plans).Error
	if err != nil {
		r.logger.Error("Failed to get all plans", zap.Error(err))
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}

	return plans, nil
}

// GetByID retrieves an active plan
func (r *planRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error) {
	var plan model.Plan

	err := conn(ctx, r.db).
		Where("id = ? AND is_active = ?", id, true).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan",
			zap.String("plan_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// Upsert creates a plan or updates the one with the same name
func (r *planRepository) Upsert(ctx context.Context, plan *model.Plan) error {
	plan.UpdatedAt = time.Now()
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"intro", "pricing", "max_resolution", "livestream",
				"sports_choice", "sort_order", "is_active", "updated_at",
			}),
		}).
		Create(plan).Error
	if err != nil {
		r.logger.Error("Failed to upsert plan",
			zap.String("name", plan.Name),
			zap.Error(err))
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}
