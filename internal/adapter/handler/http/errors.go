package http

import (
	"errors"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	pkgErrors "github.com/Mattie1391/sportify-backend/pkg/errors"
)

// toAppError maps domain errors to API error codes
func toAppError(err error) *pkgErrors.AppError {
	var (
		gatewayErr *domainErrors.GatewayError
		guardErr   *domainErrors.AggregationGuardError
	)

	switch {
	case errors.Is(err, domainErrors.ErrPlanNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Plan not found", err)
	case errors.Is(err, domainErrors.ErrNoRenewingPeriod):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "No auto-renewing subscription", err)
	case errors.Is(err, domainErrors.ErrPayoutNotFound):
		return pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Payout not found", err)
	case errors.Is(err, domainErrors.ErrActiveSubscriptionExists):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "An auto-renewing subscription is already active", err)
	case errors.Is(err, domainErrors.ErrPayoutAlreadyTransferred):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Payout already transferred", err)
	case errors.Is(err, domainErrors.ErrPayoutPeriodComputed):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Revenue share already computed for this period", err)
	case errors.Is(err, domainErrors.ErrRevenueShareLocked):
		return pkgErrors.NewAppError(pkgErrors.ErrConflict, "Revenue share computation in progress", err)
	case errors.As(err, &guardErr):
		return pkgErrors.NewAppError(pkgErrors.ErrFailedPrecondition, guardErr.Error(), err)
	case errors.As(err, &gatewayErr):
		return pkgErrors.NewAppError(pkgErrors.ErrUnavailable, "Payment gateway unavailable", err)
	case errors.Is(err, domainErrors.ErrOrderSequenceExhausted):
		return pkgErrors.NewAppError(pkgErrors.ErrUnavailable, "Checkout temporarily unavailable", err)
	default:
		return pkgErrors.NewAppError(pkgErrors.ErrInternal, "Internal server error", err)
	}
}
