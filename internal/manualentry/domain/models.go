package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ManualEntry is a visit block recorded by hand, outside the
// electronic verification flow. It is billed per visit.
type ManualEntry struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	ClientID      snowflake.ID `gorm:"not null;index" json:"client_id"`
	ClientName    string       `gorm:"not null;index" json:"client_name"`
	CaregiverName string       `gorm:"column:caregiver_name" json:"caregiver_name,omitempty"`
	ServiceType   string       `gorm:"not null" json:"service_type"`
	VisitCount    int          `gorm:"not null" json:"visit_count"`
	StartDate     *time.Time   `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate       *time.Time   `gorm:"column:end_date" json:"end_date,omitempty"`
	Notes         string       `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ManualEntry) TableName() string {
	return "manual_entries"
}
