package domain

import (
	"context"
	"errors"
)

type CreateRequest struct {
	Name             string
	Description      string
	IsMedical        bool
	DefaultRateCents int64
	BillingMethod    string
	UnitType         string
}

type UpdateRequest struct {
	ID               string
	Description      *string
	IsMedical        *bool
	DefaultRateCents *int64
	BillingMethod    *string
	UnitType         *string
	Active           *bool
}

type ListRequest struct {
	ActiveOnly    bool
	BillingMethod string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (ServiceType, error)
	Update(ctx context.Context, req UpdateRequest) (ServiceType, error)
	Deactivate(ctx context.Context, id string) (ServiceType, error)
	GetByID(ctx context.Context, id string) (ServiceType, error)
	GetByName(ctx context.Context, name string) (ServiceType, error)
	List(ctx context.Context, req ListRequest) ([]ServiceType, error)
}

var (
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidRate          = errors.New("invalid_rate")
	ErrInvalidBillingMethod = errors.New("invalid_billing_method")
	ErrInvalidID            = errors.New("invalid_id")
	ErrDuplicateName        = errors.New("duplicate_name")
	ErrNotFound             = errors.New("not_found")
)
