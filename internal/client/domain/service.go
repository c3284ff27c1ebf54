package domain

import (
	"context"
	"errors"
)

type UpdateRequest struct {
	Name   string
	Notes  *string
	Active *bool
}

type Service interface {
	// GetOrCreate returns the client with the given name, creating it
	// on first reference.
	GetOrCreate(ctx context.Context, name string) (Client, error)
	GetByName(ctx context.Context, name string) (Client, error)
	Update(ctx context.Context, req UpdateRequest) (Client, error)
	List(ctx context.Context, activeOnly bool) ([]Client, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
)
