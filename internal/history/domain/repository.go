package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// EntryCursor marks the last entry of the previous page.
type EntryCursor struct {
	ID        snowflake.ID
	Timestamp time.Time
}

type ListFilter struct {
	ClientName string
	Cursor     *EntryCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *HistoryEntry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*HistoryEntry, error)
	DeleteAll(ctx context.Context, db *gorm.DB) error
}
