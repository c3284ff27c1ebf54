package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ActionClientAdded    = "client_added"
	ActionClientDeleted  = "client_deleted"
	ActionHoursUpdated   = "hours_updated"
	ActionPeriodOverride = "period_override"
)

type HistoryEntry struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	ClientName   string         `gorm:"not null;index" json:"client_name"`
	Action       string         `gorm:"not null" json:"action"`
	ServiceTypes datatypes.JSON `gorm:"type:jsonb" json:"service_types,omitempty"`
	OldValue     string         `gorm:"column:old_value" json:"old_value,omitempty"`
	NewValue     string         `gorm:"column:new_value" json:"new_value,omitempty"`
	Reason       string         `gorm:"not null;default:''" json:"reason"`
	PeriodStart  *time.Time     `gorm:"column:period_start" json:"period_start,omitempty"`
	PeriodEnd    *time.Time     `gorm:"column:period_end" json:"period_end,omitempty"`
	Details      string         `gorm:"column:details" json:"details,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (HistoryEntry) TableName() string {
	return "history_entries"
}
