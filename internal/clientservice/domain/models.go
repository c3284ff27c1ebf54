package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ClientServiceConfig is the standing billing agreement for one
// (client, service type) pair. Hours is the quantity billed per period
// for hourly services; CustomRateCents, when set, replaces the service
// type's default rate.
type ClientServiceConfig struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID        snowflake.ID `gorm:"not null;uniqueIndex:idx_client_service" json:"client_id"`
	ServiceTypeID   snowflake.ID `gorm:"not null;uniqueIndex:idx_client_service" json:"service_type_id"`
	ClientName      string       `gorm:"not null;index" json:"client_name"`
	ServiceTypeName string       `gorm:"not null" json:"service_type_name"`
	Hours           float64      `gorm:"not null" json:"hours"`
	CustomRateCents *int64       `gorm:"column:custom_rate_cents" json:"custom_rate_cents,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ClientServiceConfig) TableName() string {
	return "client_service_configs"
}

// PeriodOverride replaces the configured quantity for dates inside
// [StartDate, EndDate], both inclusive. Rates are never overridden.
type PeriodOverride struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ConfigID  snowflake.ID `gorm:"not null;index" json:"config_id"`
	Quantity  float64      `gorm:"not null" json:"quantity"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	EndDate   time.Time    `gorm:"not null" json:"end_date"`
	Reason    string       `gorm:"not null;default:''" json:"reason"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PeriodOverride) TableName() string {
	return "period_overrides"
}

// Resolution sources.
const (
	SourceOverride       = "override"
	SourceClientConfig   = "client_config"
	SourceServiceDefault = "service_default"
)

// Resolution is the billing quantity and rate in force for one
// (client, service type) pair at a point in time.
type Resolution struct {
	ClientName      string  `json:"client_name"`
	ServiceTypeName string  `json:"service_type_name"`
	BillingMethod   string  `json:"billing_method"`
	UnitType        string  `json:"unit_type"`
	Quantity        float64 `json:"quantity"`
	RateCents       int64   `json:"rate_cents"`
	// Source reports where RateCents came from, except SourceOverride,
	// which reports that an active override supplied Quantity. A client
	// config without a custom rate still resolves as service_default.
	Source string `json:"source"`
}
