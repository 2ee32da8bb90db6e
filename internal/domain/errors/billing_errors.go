package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrSignatureInvalid indicates a gateway payload whose CheckMacValue does not match
	ErrSignatureInvalid = errors.New("gateway signature invalid")

	// ErrMalformedNotification indicates a signed payload missing or garbling a required field
	ErrMalformedNotification = errors.New("malformed gateway notification")

	// ErrReferencedSubscriptionNotFound indicates a charge for an order or agreement we never issued
	ErrReferencedSubscriptionNotFound = errors.New("referenced subscription not found")

	// ErrDuplicateDelivery is raised by storage when a charge was already recorded.
	// The webhook flow treats it as success.
	ErrDuplicateDelivery = errors.New("duplicate delivery")

	// ErrPeriodAlreadyPaid indicates a first charge for a period already paid under another agreement
	ErrPeriodAlreadyPaid = errors.New("subscription period already paid")

	// ErrNoRenewingPeriod indicates the user has no auto-renewing subscription to cancel
	ErrNoRenewingPeriod = errors.New("no auto-renewing subscription found")

	// ErrPlanNotFound indicates the requested plan does not exist or is inactive
	ErrPlanNotFound = errors.New("plan not found")

	// ErrActiveSubscriptionExists indicates a checkout while a renewing subscription is still running
	ErrActiveSubscriptionExists = errors.New("user already has an auto-renewing subscription")

	// ErrOrderSequenceExhausted indicates more than 9999 order numbers were requested for one day
	ErrOrderSequenceExhausted = errors.New("order number sequence exhausted for the day")

	// ErrPayoutPeriodComputed indicates the revenue share for the month already exists
	ErrPayoutPeriodComputed = errors.New("revenue share already computed for period")

	// ErrRevenueShareLocked indicates another instance is computing the same month
	ErrRevenueShareLocked = errors.New("revenue share computation already in progress")

	// ErrPayoutNotFound indicates the payout record does not exist
	ErrPayoutNotFound = errors.New("payout record not found")

	// ErrPayoutAlreadyTransferred indicates the payout was already marked as transferred
	ErrPayoutAlreadyTransferred = errors.New("payout already transferred")
)

// AmountMismatchError is returned when a charged amount differs from the price on record
type AmountMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("charged amount %s does not match expected %s", e.Actual.String(), e.Expected.String())
}

// NewAmountMismatchError creates a new AmountMismatchError
func NewAmountMismatchError(expected, actual decimal.Decimal) *AmountMismatchError {
	return &AmountMismatchError{Expected: expected, Actual: actual}
}

// ChargeFailureError carries the gateway's failure code for a declined charge
type ChargeFailureError struct {
	Code    string
	Message string
}

func (e *ChargeFailureError) Error() string {
	return fmt.Sprintf("charge failed with gateway code %s: %s", e.Code, e.Message)
}

// NewChargeFailureError creates a new ChargeFailureError
func NewChargeFailureError(code, message string) *ChargeFailureError {
	return &ChargeFailureError{Code: code, Message: message}
}

// AggregationGuardError aborts a revenue share run whose usage input is unusable
type AggregationGuardError struct {
	Period string
	Reason string
}

func (e *AggregationGuardError) Error() string {
	return fmt.Sprintf("revenue share for %s aborted: %s", e.Period, e.Reason)
}

// GatewayError is a non-success answer from a synchronous gateway call
type GatewayError struct {
	Operation string
	Code      string
	Message   string
	Cause     error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gateway %s failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("gateway %s rejected with code %s: %s", e.Operation, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}
