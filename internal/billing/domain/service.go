package domain

import (
	"context"
	"errors"
	"time"

	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
)

type CalculateRequest struct {
	// Records are cleaned electronic visits, one visit each. Stored
	// manual entries are merged in automatically.
	Records []ingestdomain.VisitRecord
	AsOf    *time.Time
}

type Service interface {
	Calculate(ctx context.Context, req CalculateRequest) (Ledger, error)
}

var ErrNoVisits = errors.New("no_visits")
