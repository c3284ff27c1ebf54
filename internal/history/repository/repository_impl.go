package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/history/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.HistoryEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO history_entries (id, timestamp, client_name, action, service_types, old_value, new_value, reason, period_start, period_end, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.ClientName,
		entry.Action,
		entry.ServiceTypes,
		entry.OldValue,
		entry.NewValue,
		entry.Reason,
		entry.PeriodStart,
		entry.PeriodEnd,
		entry.Details,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry
	stmt := db.WithContext(ctx).Model(&domain.HistoryEntry{})
	if filter.ClientName != "" {
		stmt = stmt.Where("client_name = ?", filter.ClientName)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where(
			"timestamp < ? OR (timestamp = ? AND id < ?)",
			filter.Cursor.Timestamp,
			filter.Cursor.Timestamp,
			filter.Cursor.ID,
		)
	}
	if filter.Limit > 0 {
		// One extra row signals that more pages exist.
		stmt = stmt.Limit(filter.Limit + 1)
	}
	err := stmt.Order("timestamp desc, id desc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`DELETE FROM history_entries`).Error
}
