package http

import (
	"context"
	"errors"
	"net/http"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/usecase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebhookProcessor applies gateway notifications
type WebhookProcessor interface {
	Process(ctx context.Context, fields map[string]string) (*usecase.WebhookResult, error)
}

// WebhookHandler receives ECPay payment notifications
type WebhookHandler struct {
	processor WebhookProcessor
	logger    *zap.Logger
}

func NewWebhookHandler(processor WebhookProcessor, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		logger:    logger,
	}
}

// HandleNotify answers "1|OK" for handled notifications. Anything else is
// answered "0|<reason>" with an error status so the gateway retries.
func (h *WebhookHandler) HandleNotify(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		h.logger.Warn("Failed to parse gateway notification", zap.Error(err))
		return c.String(http.StatusBadRequest, "0|Invalid form")
	}

	fields := make(map[string]string, len(params))
	for key := range params {
		fields[key] = params.Get(key)
	}

	result, err := h.processor.Process(c.Request().Context(), fields)
	if err != nil {
		status, reason := webhookFailure(err)
		h.logger.Warn("Gateway notification not acknowledged",
			zap.String("merchant_trade_no", fields["MerchantTradeNo"]),
			zap.Int("status", status),
			zap.Error(err))
		return c.String(status, "0|"+reason)
	}

	h.logger.Info("Gateway notification acknowledged",
		zap.String("merchant_trade_no", fields["MerchantTradeNo"]),
		zap.String("kind", string(result.Kind)),
		zap.Bool("duplicate", result.Duplicate))

	return c.String(http.StatusOK, result.Ack)
}

func webhookFailure(err error) (int, string) {
	var (
		mismatch *domainErrors.AmountMismatchError
		failure  *domainErrors.ChargeFailureError
	)

	switch {
	case errors.Is(err, domainErrors.ErrSignatureInvalid):
		return http.StatusBadRequest, "CheckMacValue Error"
	case errors.Is(err, domainErrors.ErrMalformedNotification):
		return http.StatusBadRequest, "Malformed Notification"
	case errors.Is(err, domainErrors.ErrReferencedSubscriptionNotFound):
		return http.StatusNotFound, "Order Not Found"
	case errors.Is(err, domainErrors.ErrPeriodAlreadyPaid):
		return http.StatusConflict, "Order Already Paid"
	case errors.As(err, &mismatch):
		return http.StatusUnprocessableEntity, "Amount Mismatch"
	case errors.As(err, &failure):
		return http.StatusUnprocessableEntity, "Charge Failed " + failure.Code
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}
