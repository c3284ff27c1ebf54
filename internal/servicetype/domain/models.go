package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	BillingMethodHourly = "hourly"
	BillingMethodUnit   = "unit"
)

type ServiceType struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Code             string       `gorm:"not null;uniqueIndex" json:"code"`
	Name             string       `gorm:"not null;uniqueIndex" json:"name"`
	Description      string       `gorm:"column:description" json:"description,omitempty"`
	IsMedical        bool         `gorm:"not null;default:false" json:"is_medical"`
	DefaultRateCents int64        `gorm:"not null" json:"default_rate_cents"`
	BillingMethod    string       `gorm:"not null" json:"billing_method"`
	UnitType         string       `gorm:"not null" json:"unit_type"`
	Active           bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ServiceType) TableName() string {
	return "service_types"
}
