package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/Mattie1391/sportify-backend/internal/domain/repository"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	pkgErrors "github.com/Mattie1391/sportify-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RevenueShareUsecase is the operator side of revenue sharing
type RevenueShareUsecase interface {
	Compute(ctx context.Context, month model.BillingMonth) (*usecase.RevenueShareResult, error)
	ListPayouts(ctx context.Context, filter repository.PayoutFilter) ([]*model.PayoutRecord, error)
	MarkTransferred(ctx context.Context, id int64) (*model.PayoutRecord, error)
}

// PayoutHandler serves the admin payout endpoints
type PayoutHandler struct {
	revenueShare RevenueShareUsecase
	logger       *zap.Logger
}

func NewPayoutHandler(revenueShare RevenueShareUsecase, logger *zap.Logger) *PayoutHandler {
	return &PayoutHandler{
		revenueShare: revenueShare,
		logger:       logger,
	}
}

// ListPayoutsQuery filters GET /admin/payouts
type ListPayoutsQuery struct {
	CoachID       string `query:"coach_id" validate:"omitempty,uuid"`
	Period        string `query:"period" validate:"omitempty,datetime=2006-01"`
	IsTransferred string `query:"is_transferred" validate:"omitempty,oneof=true false"`
	Limit         int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset        int    `query:"offset" validate:"omitempty,min=0"`
}

// RunRevenueShareRequest is the body of POST /admin/revenue-share/runs
type RunRevenueShareRequest struct {
	Period string `json:"period" validate:"required,datetime=2006-01"`
}

func (h *PayoutHandler) ListPayouts(c echo.Context) error {
	var query ListPayoutsQuery
	if err := bindAndValidate(c, &query); err != nil {
		return err
	}

	filter := repository.PayoutFilter{
		Period: query.Period,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if query.IsTransferred != "" {
		transferred := query.IsTransferred == "true"
		filter.IsTransferred = &transferred
	}
	if query.CoachID != "" {
		coachID := uuid.MustParse(query.CoachID)
		filter.CoachID = &coachID
	}

	records, err := h.revenueShare.ListPayouts(c.Request().Context(), filter)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Failed to list payouts")
		return pkgErrors.ToHTTPError(appErr)
	}
	if records == nil {
		records = []*model.PayoutRecord{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"payouts": records,
		"count":   len(records),
	})
}

func (h *PayoutHandler) MarkTransferred(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid payout id", err))
	}

	record, err := h.revenueShare.MarkTransferred(c.Request().Context(), id)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Failed to mark payout transferred", zap.Int64("payout_id", id))
		return pkgErrors.ToHTTPError(appErr)
	}

	return c.JSON(http.StatusOK, record)
}

// RunRevenueShare computes an explicit month on demand.
func (h *PayoutHandler) RunRevenueShare(c echo.Context) error {
	var req RunRevenueShareRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	month, err := model.ParseBillingMonth(req.Period)
	if err != nil {
		return pkgErrors.ToHTTPError(pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Invalid period", err))
	}

	result, err := h.revenueShare.Compute(c.Request().Context(), month)
	if err != nil {
		appErr := toAppError(err)
		pkgErrors.LogError(h.logger, appErr, "Revenue share run failed", zap.String("period", req.Period))
		return pkgErrors.ToHTTPError(appErr)
	}

	if result.Run == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"period":  result.Period,
			"skipped": true,
			"reason":  result.SkipReason,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"period":  result.Period,
		"run":     result.Run,
		"payouts": result.Records,
	})
}
