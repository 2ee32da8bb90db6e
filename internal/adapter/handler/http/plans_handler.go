package http

import (
	"context"
	"net/http"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	pkgErrors "github.com/Mattie1391/sportify-backend/pkg/errors"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PlanLister lists purchasable plans
type PlanLister interface {
	ListPlans(ctx context.Context) ([]*model.Plan, error)
}

type PlansHandler struct {
	plans  PlanLister
	logger *zap.Logger
}

func NewPlansHandler(plans PlanLister, logger *zap.Logger) *PlansHandler {
	return &PlansHandler{plans: plans, logger: logger}
}

func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.plans.ListPlans(c.Request().Context())
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Error fetching plans")
		return pkgErrors.ToHTTPError(appErr)
	}

	h.logger.Debug("Plans fetched", zap.Int("active_plans", len(plans)))

	if plans == nil {
		plans = []*model.Plan{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"plans": plans,
	})
}
