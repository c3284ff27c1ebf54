package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	ClientName    string
	CaregiverName string
	ServiceType   string
	VisitCount    int
	StartDate     *time.Time
	EndDate       *time.Time
	Notes         string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (ManualEntry, error)
	List(ctx context.Context) ([]ManualEntry, error)
	ListByClient(ctx context.Context, clientName string) ([]ManualEntry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

var (
	ErrInvalidClient      = errors.New("invalid_client")
	ErrInvalidServiceType = errors.New("invalid_service_type")
	ErrInvalidVisitCount  = errors.New("invalid_visit_count")
	ErrInvalidRange       = errors.New("invalid_range")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
)
