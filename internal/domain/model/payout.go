package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRecord is a coach's revenue share for one month.
type PayoutRecord struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CoachID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payout_coach_period" json:"coach_id"`
	Period        string          `gorm:"size:7;not null;uniqueIndex:idx_payout_coach_period;index" json:"period"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	WatchSeconds  int64           `gorm:"not null;default:0" json:"watch_seconds"`
	IsTransferred bool            `gorm:"not null;default:false" json:"is_transferred"`
	TransferredAt *time.Time      `json:"transferred_at,omitempty"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PayoutRecord) TableName() string {
	return "payout_records"
}

// PayoutRun marks a month whose revenue share has been computed.
type PayoutRun struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Period            string          `gorm:"size:7;not null;uniqueIndex" json:"period"`
	TotalIncome       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_income"`
	ShareRate         decimal.Decimal `gorm:"type:decimal(5,4);not null" json:"share_rate"`
	SharePool         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"share_pool"`
	CoachTotal        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"coach_total"`
	PlatformShare     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"platform_share"`
	TotalWatchSeconds int64           `gorm:"not null" json:"total_watch_seconds"`
	CoachCount        int             `gorm:"not null" json:"coach_count"`
	ComputedAt        time.Time       `gorm:"not null" json:"computed_at"`
}

// TableName specifies the table name for GORM
func (PayoutRun) TableName() string {
	return "payout_runs"
}

// UsageAggregate is the total watch time of one coach's courses in a month.
type UsageAggregate struct {
	CoachID      uuid.UUID `json:"coach_id"`
	WatchSeconds int64     `json:"watch_seconds"`
}
