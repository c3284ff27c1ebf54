package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/carebill/carebill/pkg/db/pagination"
)

type RecordRequest struct {
	ClientName   string
	Action       string
	ServiceTypes []string
	OldValue     string
	NewValue     string
	Reason       string
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	Details      string
}

type QueryRequest struct {
	pagination.Pagination
	ClientName string
}

type QueryResponse struct {
	pagination.PageInfo
	Entries []HistoryEntry `json:"entries"`
}

type Service interface {
	// Record appends one entry; entries are never updated or removed
	// individually.
	Record(ctx context.Context, req RecordRequest) (HistoryEntry, error)
	// RecordInTx appends one entry through the caller's transaction so
	// the entry commits or rolls back with the mutation it documents.
	RecordInTx(ctx context.Context, tx *gorm.DB, req RecordRequest) (HistoryEntry, error)
	// Query lists entries newest first. An empty client name returns
	// the full log.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
	// Clear wipes the whole log.
	Clear(ctx context.Context) error
}

var (
	ErrInvalidClient    = errors.New("invalid_client")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
