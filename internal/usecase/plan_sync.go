package usecase

import (
	"context"
	"fmt"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"go.uber.org/zap"
)

// PlanService lists the plan catalogue and keeps it in sync with its source file
type PlanService struct {
	planRepo repository.PlanRepository
	logger   *zap.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(planRepo repository.PlanRepository, logger *zap.Logger) *PlanService {
	return &PlanService{
		planRepo: planRepo,
		logger:   logger,
	}
}

// ListPlans returns active plans in display order
func (s *PlanService) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	plans, err := s.planRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// SyncPlans upserts every plan by name. It stops at the first invalid plan.
func (s *PlanService) SyncPlans(ctx context.Context, plans []*model.Plan) (int, error) {
	synced := 0
	for i, plan := range plans {
		if plan.Name == "" {
			return synced, fmt.Errorf("plan #%d has no name", i+1)
		}
		if !plan.Pricing.IsPositive() {
			return synced, fmt.Errorf("plan %q must have a positive price", plan.Name)
		}
		if plan.SportsChoice < 0 {
			return synced, fmt.Errorf("plan %q has negative sports choice", plan.Name)
		}

		if err := s.planRepo.Upsert(ctx, plan); err != nil {
			return synced, err
		}
		synced++

		s.logger.Info("Plan synced",
			zap.String("name", plan.Name),
			zap.String("pricing", plan.Pricing.String()),
			zap.Bool("is_active", plan.IsActive))
	}
	return synced, nil
}
