package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a purchasable subscription tier of the catalogue.
type Plan struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string          `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Intro         string          `gorm:"size:200" json:"intro"`
	Pricing       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"pricing"`
	MaxResolution int             `gorm:"not null;default:720" json:"max_resolution"`
	Livestream    bool            `gorm:"not null;default:false" json:"livestream"`
	// SportsChoice is the number of sports a subscriber may pick; 0 means unlimited
	SportsChoice int       `gorm:"not null;default:0" json:"sports_choice"`
	SortOrder    int       `gorm:"default:0" json:"sort_order"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Plan) TableName() string {
	return "plans"
}
