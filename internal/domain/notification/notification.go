// Package notification turns gateway webhook fields into typed notifications.
package notification

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Kind names a notification variant
type Kind string

const (
	KindFirstCharge     Kind = "first_charge"
	KindRecurringCharge Kind = "recurring_charge"
	KindChargeFailed    Kind = "charge_failed"
)

// Gateway field names
const (
	FieldMerchantTradeNo   = "MerchantTradeNo"
	FieldRtnCode           = "RtnCode"
	FieldRtnMsg            = "RtnMsg"
	FieldTradeAmt          = "TradeAmt"
	FieldAmount            = "Amount"
	FieldPaymentDate       = "PaymentDate"
	FieldProcessDate       = "ProcessDate"
	FieldPaymentType       = "PaymentType"
	FieldTradeNo           = "TradeNo"
	FieldGwsr              = "Gwsr"
	FieldTotalSuccessTimes = "TotalSuccessTimes"
)

const (
	successCode = "1"
	dateLayout  = "2006/01/02 15:04:05"
)

// Notification is one of *FirstChargeSucceeded, *RecurringChargeSucceeded
// or *ChargeFailed.
type Notification interface {
	Kind() Kind
	MerchantTradeNo() string
	notification()
}

// FirstChargeSucceeded pays the pending period created at checkout.
type FirstChargeSucceeded struct {
	TradeNo string
	Charge  model.Charge
}

// RecurringChargeSucceeded is a later monthly charge on an existing agreement.
type RecurringChargeSucceeded struct {
	TradeNo      string
	SuccessTimes int
	Charge       model.Charge
}

// ChargeFailed reports a declined or cancelled charge.
type ChargeFailed struct {
	TradeNo string
	Code    string
	Message string
}

func (n *FirstChargeSucceeded) Kind() Kind              { return KindFirstCharge }
func (n *FirstChargeSucceeded) MerchantTradeNo() string { return n.TradeNo }
func (*FirstChargeSucceeded) notification()             {}

func (n *RecurringChargeSucceeded) Kind() Kind              { return KindRecurringCharge }
func (n *RecurringChargeSucceeded) MerchantTradeNo() string { return n.TradeNo }
func (*RecurringChargeSucceeded) notification()             {}

func (n *ChargeFailed) Kind() Kind              { return KindChargeFailed }
func (n *ChargeFailed) MerchantTradeNo() string { return n.TradeNo }
func (*ChargeFailed) notification()             {}

// Classify decides the notification variant of a verified payload.
// Gateway timestamps are interpreted in loc.
func Classify(fields map[string]string, loc *time.Location) (Notification, error) {
	tradeNo := strings.TrimSpace(fields[FieldMerchantTradeNo])
	if tradeNo == "" {
		return nil, malformed("missing %s", FieldMerchantTradeNo)
	}

	if code := strings.TrimSpace(fields[FieldRtnCode]); code != successCode {
		return &ChargeFailed{TradeNo: tradeNo, Code: code, Message: fields[FieldRtnMsg]}, nil
	}

	amount, err := parseAmount(fields)
	if err != nil {
		return nil, err
	}

	paidAt, err := parsePaidAt(fields, loc)
	if err != nil {
		return nil, err
	}

	charge := model.Charge{
		AgreementID:    tradeNo,
		Amount:         amount,
		PaidAt:         paidAt,
		PaymentMethod:  NormalizePaymentMethod(fields[FieldPaymentType]),
		GatewayTradeNo: firstNonEmpty(fields[FieldTradeNo], fields[FieldGwsr]),
	}

	times := strings.TrimSpace(fields[FieldTotalSuccessTimes])
	if times == "" {
		return &FirstChargeSucceeded{TradeNo: tradeNo, Charge: charge}, nil
	}

	n, err := strconv.Atoi(times)
	if err != nil || n < 1 {
		return nil, malformed("invalid %s %q", FieldTotalSuccessTimes, times)
	}
	return &RecurringChargeSucceeded{TradeNo: tradeNo, SuccessTimes: n, Charge: charge}, nil
}

// NormalizePaymentMethod maps gateway payment types to stored labels.
func NormalizePaymentMethod(paymentType string) string {
	switch paymentType {
	case "Credit_CreditCard":
		return "credit_card"
	default:
		return paymentType
	}
}

func parseAmount(fields map[string]string) (decimal.Decimal, error) {
	raw := firstNonEmpty(fields[FieldTradeAmt], fields[FieldAmount])
	if raw == "" {
		return decimal.Zero, malformed("missing %s", FieldTradeAmt)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, malformed("invalid amount %q", raw)
	}
	return amount, nil
}

func parsePaidAt(fields map[string]string, loc *time.Location) (time.Time, error) {
	raw := firstNonEmpty(fields[FieldPaymentDate], fields[FieldProcessDate])
	if raw == "" {
		return time.Time{}, malformed("missing %s", FieldPaymentDate)
	}
	paidAt, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, malformed("invalid payment date %q", raw)
	}
	return paidAt, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domainErrors.ErrMalformedNotification, fmt.Sprintf(format, args...))
}
