package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/manualentry/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ManualEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO manual_entries (id, client_id, client_name, caregiver_name, service_type, visit_count, start_date, end_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ClientID,
		entry.ClientName,
		entry.CaregiverName,
		entry.ServiceType,
		entry.VisitCount,
		entry.StartDate,
		entry.EndDate,
		entry.Notes,
		entry.CreatedAt,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM manual_entries WHERE id = ?`, id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ManualEntry, error) {
	var entry domain.ManualEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, client_name, caregiver_name, service_type, visit_count, start_date, end_date, notes, created_at
		 FROM manual_entries WHERE id = ?`,
		id,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Exec(`DELETE FROM manual_entries`).Error
}
