package model

import "time"

// OrderNumber records an issued order number (YYYYMMDDNNNN).
type OrderNumber struct {
	Number   string    `gorm:"primaryKey;size:12" json:"number"`
	IssuedAt time.Time `gorm:"not null;default:now()" json:"issued_at"`
}

// TableName specifies the table name for GORM
func (OrderNumber) TableName() string {
	return "order_numbers"
}
