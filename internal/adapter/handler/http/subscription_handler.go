package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/infrastructure/provider/ecpay"
	"github.com/Mattie1391/sportify-backend/internal/middleware/auth"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	pkgErrors "github.com/Mattie1391/sportify-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SubscriptionUsecase is the subscription flow used by SubscriptionHandler
type SubscriptionUsecase interface {
	Checkout(ctx context.Context, userID, planID uuid.UUID) (*usecase.CheckoutResult, error)
	CancelAutoRenew(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error)
	CurrentSubscription(ctx context.Context, userID uuid.UUID) (*model.SubscriptionPeriod, error)
}

type SubscriptionHandler struct {
	logger              *zap.Logger
	subscriptionService SubscriptionUsecase
}

func NewSubscriptionHandler(logger *zap.Logger, subscriptionService SubscriptionUsecase) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:              logger,
		subscriptionService: subscriptionService,
	}
}

// CheckoutRequest is the body of POST /subscriptions/checkout
type CheckoutRequest struct {
	PlanID string `json:"plan_id" form:"plan_id" validate:"required,uuid"`
}

// SubscriptionResponse describes a subscription period to its owner
type SubscriptionResponse struct {
	PeriodID      int64       `json:"period_id"`
	OrderNumber   string      `json:"order_number"`
	Plan          *model.Plan `json:"plan,omitempty"`
	Price         string      `json:"price"`
	StartAt       *time.Time  `json:"start_at"`
	EndAt         *time.Time  `json:"end_at"`
	IsRenewal     bool        `json:"is_renewal"`
	PaymentMethod *string     `json:"payment_method,omitempty"`
}

// Checkout answers with an auto-submitting HTML form that sends the browser
// to the gateway.
func (h *SubscriptionHandler) Checkout(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	planID := uuid.MustParse(req.PlanID)

	result, err := h.subscriptionService.Checkout(c.Request().Context(), user.UserID, planID)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Checkout failed",
			zap.String("user_id", user.UserID.String()),
			zap.String("plan_id", req.PlanID))
		return pkgErrors.ToHTTPError(appErr)
	}

	page, err := ecpay.RenderAutoSubmitForm(result.Form)
	if err != nil {
		h.logger.Error("Failed to render checkout form",
			zap.Int64("period_id", result.Period.ID),
			zap.Error(err))
		return pkgErrors.ToHTTPError(err)
	}

	h.logger.Info("Checkout started",
		zap.String("user_id", user.UserID.String()),
		zap.Int64("period_id", result.Period.ID),
		zap.String("order_number", result.Period.OrderNumber))

	return c.HTML(http.StatusOK, page)
}

// CancelAutoRenew stops renewal; the current period runs until it ends.
func (h *SubscriptionHandler) CancelAutoRenew(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	period, err := h.subscriptionService.CancelAutoRenew(c.Request().Context(), user.UserID)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Cancellation failed",
			zap.String("user_id", user.UserID.String()))
		return pkgErrors.ToHTTPError(appErr)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Auto renewal cancelled",
		"subscription": toSubscriptionResponse(period),
	})
}

// GetCurrentSubscription answers 204 when the user has no active period.
func (h *SubscriptionHandler) GetCurrentSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	period, err := h.subscriptionService.CurrentSubscription(c.Request().Context(), user.UserID)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Failed to get current subscription",
			zap.String("user_id", user.UserID.String()))
		return pkgErrors.ToHTTPError(appErr)
	}
	if period == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, toSubscriptionResponse(period))
}

func toSubscriptionResponse(p *model.SubscriptionPeriod) SubscriptionResponse {
	return SubscriptionResponse{
		PeriodID:      p.ID,
		OrderNumber:   p.OrderNumber,
		Plan:          p.Plan,
		Price:         p.Price.StringFixed(0),
		StartAt:       p.StartAt,
		EndAt:         p.EndAt,
		IsRenewal:     p.IsRenewal,
		PaymentMethod: p.PaymentMethod,
	}
}
