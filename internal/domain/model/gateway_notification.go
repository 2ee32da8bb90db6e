package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationOutcome is how an inbound gateway notification was handled
type NotificationOutcome string

const (
	NotificationOutcomeProcessed NotificationOutcome = "processed"
	NotificationOutcomeDuplicate NotificationOutcome = "duplicate"
	NotificationOutcomeRejected  NotificationOutcome = "rejected"
)

// Scan implements sql.Scanner interface
func (o *NotificationOutcome) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*o = NotificationOutcome(v)
	case []byte:
		*o = NotificationOutcome(v)
	default:
		*o = NotificationOutcomeRejected
	}
	return nil
}

// Value implements driver.Valuer interface
func (o NotificationOutcome) Value() (driver.Value, error) {
	return string(o), nil
}

// GatewayNotification is the audit record of one webhook delivery.
type GatewayNotification struct {
	ID              int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Gateway         string              `gorm:"size:20;not null" json:"gateway"`
	MerchantTradeNo string              `gorm:"size:20;index" json:"merchant_trade_no"`
	Kind            string              `gorm:"size:30" json:"kind"`
	SignatureValid  bool                `gorm:"not null" json:"signature_valid"`
	Outcome         NotificationOutcome `gorm:"size:20;not null;index" json:"outcome"`
	Error           *string             `json:"error,omitempty"`
	Payload         JSONB               `gorm:"type:jsonb;not null" json:"payload"`
	ReceivedAt      time.Time           `gorm:"not null;default:now()" json:"received_at"`
}

// TableName specifies the table name for GORM
func (GatewayNotification) TableName() string {
	return "gateway_notifications"
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = JSONB{}
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
}
