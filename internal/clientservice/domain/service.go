package domain

import (
	"context"
	"errors"
	"time"
)

type ConfigureRequest struct {
	ClientName      string
	ServiceTypeName string
	Hours           float64
	CustomRateCents *int64
}

type UpdateHoursRequest struct {
	ClientName      string
	ServiceTypeName string
	Hours           float64
	Reason          string
}

type OverrideRequest struct {
	ClientName      string
	ServiceTypeName string
	Quantity        float64
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
}

type ResolveRequest struct {
	ClientName      string
	ServiceTypeName string
	AsOf            *time.Time
}

type Service interface {
	// Configure upserts the standing agreement for one pair, creating
	// the client on first reference.
	Configure(ctx context.Context, req ConfigureRequest) (ClientServiceConfig, error)
	UpdateHours(ctx context.Context, req UpdateHoursRequest) (ClientServiceConfig, error)
	ApplyOverride(ctx context.Context, req OverrideRequest) (PeriodOverride, error)
	Resolve(ctx context.Context, req ResolveRequest) (Resolution, error)
	ListConfigs(ctx context.Context, clientName string) ([]ClientServiceConfig, error)
	// DeleteClient removes the client with all of its configs and
	// overrides and records the deletion.
	DeleteClient(ctx context.Context, clientName string) error
}

var (
	ErrInvalidClient       = errors.New("invalid_client")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidRange        = errors.New("invalid_range")
	ErrUnknownServiceType  = errors.New("unknown_service_type")
	ErrUnconfiguredService = errors.New("unconfigured_service")
	ErrNotFound            = errors.New("not_found")
)
