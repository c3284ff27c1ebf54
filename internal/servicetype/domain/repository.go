package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ActiveOnly    bool
	BillingMethod string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	Update(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceType, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*ServiceType, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ServiceType, error)
}
