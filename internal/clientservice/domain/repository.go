package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertConfig(ctx context.Context, db *gorm.DB, config *ClientServiceConfig) error
	UpdateConfig(ctx context.Context, db *gorm.DB, config *ClientServiceConfig) error
	FindConfig(ctx context.Context, db *gorm.DB, clientID, serviceTypeID snowflake.ID) (*ClientServiceConfig, error)
	ListConfigsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*ClientServiceConfig, error)
	DeleteConfigsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) error

	InsertOverride(ctx context.Context, db *gorm.DB, override *PeriodOverride) error
	// FindActiveOverride returns the override covering asOf with the
	// most recent creation, or nil when none applies.
	FindActiveOverride(ctx context.Context, db *gorm.DB, configID snowflake.ID, asOf time.Time) (*PeriodOverride, error)
	ListOverrides(ctx context.Context, db *gorm.DB, configID snowflake.ID) ([]*PeriodOverride, error)
	DeleteOverridesByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) error
}
