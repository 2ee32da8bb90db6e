package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubscriptionPeriod is one billing cycle of a user's subscription.
//
// A checkout creates an unpaid row carrying GatewayOrderRef. The first
// successful charge pays it and records GatewayAgreementID; each recurring
// charge on the same agreement inserts a new paid row.
type SubscriptionPeriod struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID             uuid.UUID       `gorm:"type:uuid;not null" json:"plan_id"`
	OrderNumber        string          `gorm:"size:12;not null;uniqueIndex" json:"order_number"`
	GatewayOrderRef    *string         `gorm:"size:20;uniqueIndex" json:"gateway_order_ref,omitempty"`
	GatewayAgreementID *string         `gorm:"size:20;uniqueIndex:idx_agreement_purchased_at" json:"gateway_agreement_id,omitempty"`
	Price              decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price"`
	IsPaid             bool            `gorm:"not null;default:false" json:"is_paid"`
	PurchasedAt        *time.Time      `gorm:"uniqueIndex:idx_agreement_purchased_at" json:"purchased_at,omitempty"`
	StartAt            *time.Time      `json:"start_at,omitempty"`
	EndAt              *time.Time      `gorm:"index" json:"end_at,omitempty"`
	PaymentMethod      *string         `gorm:"size:30" json:"payment_method,omitempty"`
	IsRenewal          bool            `gorm:"not null;default:false" json:"is_renewal"`
	InvoiceReference   *string         `gorm:"size:50" json:"invoice_reference,omitempty"`
	CreatedAt          time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"default:now()" json:"updated_at"`

	// Relations
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// TableName specifies the table name for GORM
func (SubscriptionPeriod) TableName() string {
	return "subscription_periods"
}

// IsActiveAt reports whether the period is paid and covers t.
func (p *SubscriptionPeriod) IsActiveAt(t time.Time) bool {
	if !p.IsPaid || p.StartAt == nil || p.EndAt == nil {
		return false
	}
	return !t.Before(*p.StartAt) && t.Before(*p.EndAt)
}

// Charge is a successful card charge reported by the gateway.
type Charge struct {
	AgreementID    string
	Amount         decimal.Decimal
	PaidAt         time.Time
	PaymentMethod  string
	GatewayTradeNo string
}

// MarkPaid applies a charge to the period: it becomes paid, starts at the
// charge time, runs one billing month and renews automatically.
func (p *SubscriptionPeriod) MarkPaid(charge Charge) {
	paidAt := charge.PaidAt
	endAt := AddBillingMonth(paidAt)
	agreement := charge.AgreementID

	p.IsPaid = true
	p.PurchasedAt = &paidAt
	p.StartAt = &paidAt
	p.EndAt = &endAt
	p.IsRenewal = true
	p.GatewayAgreementID = &agreement
	if charge.PaymentMethod != "" {
		method := charge.PaymentMethod
		p.PaymentMethod = &method
	}
	if charge.GatewayTradeNo != "" {
		tradeNo := charge.GatewayTradeNo
		p.InvoiceReference = &tradeNo
	}
}

// NewRenewalPeriod builds the paid row for a recurring charge on the
// agreement that previous belongs to.
func NewRenewalPeriod(previous *SubscriptionPeriod, orderNumber string, charge Charge) *SubscriptionPeriod {
	period := &SubscriptionPeriod{
		UserID:      previous.UserID,
		PlanID:      previous.PlanID,
		OrderNumber: orderNumber,
		Price:       charge.Amount,
	}
	period.MarkPaid(charge)
	return period
}

// AddBillingMonth moves t forward one calendar month. When the target month
// is shorter, the result is clamped to its last day (Jan 31 -> Feb 28/29).
func AddBillingMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
