package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/history/domain"
	"github.com/carebill/carebill/internal/observability/metrics"
	"github.com/carebill/carebill/pkg/db/pagination"
)

var validActions = map[string]struct{}{
	domain.ActionClientAdded:    {},
	domain.ActionClientDeleted:  {},
	domain.ActionHoursUpdated:   {},
	domain.ActionPeriodOverride: {},
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("history.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.HistoryEntry, error) {
	return s.record(ctx, s.db, req)
}

func (s *Service) RecordInTx(ctx context.Context, tx *gorm.DB, req domain.RecordRequest) (domain.HistoryEntry, error) {
	if tx == nil {
		tx = s.db
	}
	return s.record(ctx, tx, req)
}

func (s *Service) record(ctx context.Context, db *gorm.DB, req domain.RecordRequest) (domain.HistoryEntry, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.HistoryEntry{}, domain.ErrInvalidClient
	}
	action := strings.TrimSpace(req.Action)
	if _, ok := validActions[action]; !ok {
		return domain.HistoryEntry{}, domain.ErrInvalidAction
	}

	serviceTypes, err := encodeServiceTypes(req.ServiceTypes)
	if err != nil {
		return domain.HistoryEntry{}, err
	}

	now := s.clock.Now()
	entry := domain.HistoryEntry{
		ID:           s.genID.Generate(),
		Timestamp:    now,
		ClientName:   clientName,
		Action:       action,
		ServiceTypes: serviceTypes,
		OldValue:     req.OldValue,
		NewValue:     req.NewValue,
		Reason:       strings.TrimSpace(req.Reason),
		PeriodStart:  req.PeriodStart,
		PeriodEnd:    req.PeriodEnd,
		Details:      req.Details,
		CreatedAt:    now,
	}

	if err := s.repo.Insert(ctx, db, &entry); err != nil {
		return domain.HistoryEntry{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordHistoryEntry(ctx, action)
	}

	return entry, nil
}

func (s *Service) Query(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	var cursor *domain.EntryCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.QueryResponse{}, domain.ErrInvalidPageToken
		}
		timestamp, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.QueryResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.QueryResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.EntryCursor{ID: id, Timestamp: timestamp}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		ClientName: strings.TrimSpace(req.ClientName),
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.QueryResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.HistoryEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.Timestamp.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}

	resp := domain.QueryResponse{Entries: entries}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx, s.db); err != nil {
		return err
	}
	s.log.Warn("history log cleared")
	return nil
}

func encodeServiceTypes(names []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cleaned = append(cleaned, name)
	}
	if len(cleaned) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
