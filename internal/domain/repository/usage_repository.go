package repository

import (
	"context"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
)

// UsageRepository reads viewing statistics owned by the catalogue.
type UsageRepository interface {
	// WatchTimeByCoach sums watch seconds per coach for stats dated in [from, to).
	WatchTimeByCoach(ctx context.Context, from, to time.Time) ([]model.UsageAggregate, error)
}
