package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/clientservice/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertConfig(ctx context.Context, db *gorm.DB, config *domain.ClientServiceConfig) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO client_service_configs (id, client_id, service_type_id, client_name, service_type_name, hours, custom_rate_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		config.ID,
		config.ClientID,
		config.ServiceTypeID,
		config.ClientName,
		config.ServiceTypeName,
		config.Hours,
		config.CustomRateCents,
		config.CreatedAt,
		config.UpdatedAt,
	).Error
}

func (r *repo) UpdateConfig(ctx context.Context, db *gorm.DB, config *domain.ClientServiceConfig) error {
	return db.WithContext(ctx).Exec(
		`UPDATE client_service_configs SET hours = ?, custom_rate_cents = ?, updated_at = ? WHERE id = ?`,
		config.Hours,
		config.CustomRateCents,
		config.UpdatedAt,
		config.ID,
	).Error
}

func (r *repo) FindConfig(ctx context.Context, db *gorm.DB, clientID, serviceTypeID snowflake.ID) (*domain.ClientServiceConfig, error) {
	var config domain.ClientServiceConfig
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, service_type_id, client_name, service_type_name, hours, custom_rate_cents, created_at, updated_at
		 FROM client_service_configs WHERE client_id = ? AND service_type_id = ?`,
		clientID,
		serviceTypeID,
	).Scan(&config).Error
	if err != nil {
		return nil, err
	}
	if config.ID == 0 {
		return nil, nil
	}
	return &config, nil
}

func (r *repo) ListConfigsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]*domain.ClientServiceConfig, error) {
	var configs []*domain.ClientServiceConfig
	err := db.WithContext(ctx).
		Model(&domain.ClientServiceConfig{}).
		Where("client_id = ?", clientID).
		Order("service_type_name asc").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repo) DeleteConfigsByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM client_service_configs WHERE client_id = ?`,
		clientID,
	).Error
}

func (r *repo) InsertOverride(ctx context.Context, db *gorm.DB, override *domain.PeriodOverride) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO period_overrides (id, config_id, quantity, start_date, end_date, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		override.ID,
		override.ConfigID,
		override.Quantity,
		override.StartDate,
		override.EndDate,
		override.Reason,
		override.CreatedAt,
	).Error
}

func (r *repo) FindActiveOverride(ctx context.Context, db *gorm.DB, configID snowflake.ID, asOf time.Time) (*domain.PeriodOverride, error) {
	var override domain.PeriodOverride
	err := db.WithContext(ctx).Raw(
		`SELECT id, config_id, quantity, start_date, end_date, reason, created_at
		 FROM period_overrides
		 WHERE config_id = ? AND start_date <= ? AND end_date >= ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		configID,
		asOf,
		asOf,
	).Scan(&override).Error
	if err != nil {
		return nil, err
	}
	if override.ID == 0 {
		return nil, nil
	}
	return &override, nil
}

func (r *repo) ListOverrides(ctx context.Context, db *gorm.DB, configID snowflake.ID) ([]*domain.PeriodOverride, error) {
	var overrides []*domain.PeriodOverride
	err := db.WithContext(ctx).
		Model(&domain.PeriodOverride{}).
		Where("config_id = ?", configID).
		Order("created_at desc, id desc").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	return overrides, nil
}

func (r *repo) DeleteOverridesByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM period_overrides
		 WHERE config_id IN (SELECT id FROM client_service_configs WHERE client_id = ?)`,
		clientID,
	).Error
}
