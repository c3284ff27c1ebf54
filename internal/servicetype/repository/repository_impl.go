package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/servicetype/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, serviceType *domain.ServiceType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_types (id, code, name, description, is_medical, default_rate_cents, billing_method, unit_type, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		serviceType.ID,
		serviceType.Code,
		serviceType.Name,
		serviceType.Description,
		serviceType.IsMedical,
		serviceType.DefaultRateCents,
		serviceType.BillingMethod,
		serviceType.UnitType,
		serviceType.Active,
		serviceType.CreatedAt,
		serviceType.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, serviceType *domain.ServiceType) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_types
		 SET description = ?, is_medical = ?, default_rate_cents = ?, billing_method = ?, unit_type = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		serviceType.Description,
		serviceType.IsMedical,
		serviceType.DefaultRateCents,
		serviceType.BillingMethod,
		serviceType.UnitType,
		serviceType.Active,
		serviceType.UpdatedAt,
		serviceType.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ServiceType, error) {
	var serviceType domain.ServiceType
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, is_medical, default_rate_cents, billing_method, unit_type, active, created_at, updated_at
		 FROM service_types WHERE id = ?`,
		id,
	).Scan(&serviceType).Error
	if err != nil {
		return nil, err
	}
	if serviceType.ID == 0 {
		return nil, nil
	}
	return &serviceType, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*domain.ServiceType, error) {
	var serviceType domain.ServiceType
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, name, description, is_medical, default_rate_cents, billing_method, unit_type, active, created_at, updated_at
		 FROM service_types WHERE lower(name) = lower(?)`,
		name,
	).Scan(&serviceType).Error
	if err != nil {
		return nil, err
	}
	if serviceType.ID == 0 {
		return nil, nil
	}
	return &serviceType, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ServiceType, error) {
	var serviceTypes []*domain.ServiceType
	stmt := db.WithContext(ctx).Model(&domain.ServiceType{})
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if filter.BillingMethod != "" {
		stmt = stmt.Where("billing_method = ?", filter.BillingMethod)
	}
	err := stmt.Order("name asc").Find(&serviceTypes).Error
	if err != nil {
		return nil, err
	}
	return serviceTypes, nil
}
