package domain

import (
	"context"
	"errors"
)

type CleanRequest struct {
	Header []string
	Rows   [][]string
}

type CleanBatchRequest struct {
	Files []SourceFile
}

type Service interface {
	Clean(ctx context.Context, req CleanRequest) ([]VisitRecord, error)
	CleanBatch(ctx context.Context, req CleanBatchRequest) (BatchResult, error)
}

var (
	ErrSchema  = errors.New("invalid_schema")
	ErrNoFiles = errors.New("no_files")
)
