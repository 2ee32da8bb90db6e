package repository

import (
	"context"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/google/uuid"
)

// PlanRepository handles subscription plan storage
type PlanRepository interface {
	GetAll(ctx context.Context) ([]*model.Plan, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Plan, error)
	// Upsert creates or updates a plan matched by name
	Upsert(ctx context.Context, plan *model.Plan) error
}
