package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SignatureField is the name of the digest field in gateway payloads.
const SignatureField = "CheckMacValue"

// SignatureCodec signs and verifies gateway parameter sets.
type SignatureCodec interface {
	// Sign returns the digest of params. A SignatureField entry in params is ignored.
	Sign(params map[string]string) string
	// Verify recomputes the digest of params and compares it with digest.
	Verify(params map[string]string, digest string) error
}

// RecurringGateway is a card gateway that charges a stored card monthly.
type RecurringGateway interface {
	// BuildCheckout returns the signed form the browser posts to start a recurring agreement.
	BuildCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutForm, error)
	// CancelRecurring stops future charges on the agreement.
	CancelRecurring(ctx context.Context, agreementID string) error
	// Name identifies the gateway in logs and audit records.
	Name() string
}

// CheckoutRequest describes the first order of a recurring agreement
type CheckoutRequest struct {
	MerchantTradeNo string
	MemberID        string
	Amount          decimal.Decimal
	ItemName        string
	TradeDesc       string
	TradeDate       time.Time
}

// CheckoutForm is a signed HTML form target
type CheckoutForm struct {
	Action string
	Fields map[string]string
}
