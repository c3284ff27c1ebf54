package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/carebill/carebill/internal/client/domain"
	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/manualentry/domain"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
	"github.com/carebill/carebill/pkg/db/option"
	"github.com/carebill/carebill/pkg/repository"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Clients      clientdomain.Service
	ServiceTypes servicetypedomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	entrystore   repository.Repository[domain.ManualEntry]
	clients      clientdomain.Service
	serviceTypes servicetypedomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("manualentry.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		entrystore:   repository.ProvideStore[domain.ManualEntry](p.DB),
		clients:      p.Clients,
		serviceTypes: p.ServiceTypes,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.ManualEntry, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.ManualEntry{}, domain.ErrInvalidClient
	}
	if req.VisitCount <= 0 {
		return domain.ManualEntry{}, domain.ErrInvalidVisitCount
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return domain.ManualEntry{}, domain.ErrInvalidRange
	}

	serviceType, err := s.serviceTypes.GetByName(ctx, req.ServiceType)
	if err != nil {
		if errors.Is(err, servicetypedomain.ErrNotFound) || errors.Is(err, servicetypedomain.ErrInvalidName) {
			return domain.ManualEntry{}, domain.ErrInvalidServiceType
		}
		return domain.ManualEntry{}, err
	}

	client, err := s.clients.GetOrCreate(ctx, clientName)
	if err != nil {
		return domain.ManualEntry{}, err
	}

	entry := domain.ManualEntry{
		ID:            s.genID.Generate(),
		ClientID:      client.ID,
		ClientName:    client.Name,
		CaregiverName: strings.TrimSpace(req.CaregiverName),
		ServiceType:   serviceType.Name,
		VisitCount:    req.VisitCount,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		return domain.ManualEntry{}, err
	}

	s.log.Info("manual entry recorded",
		zap.String("client", client.Name),
		zap.String("service_type", serviceType.Name),
		zap.Int("visits", req.VisitCount),
	)

	return entry, nil
}

func (s *Service) List(ctx context.Context) ([]domain.ManualEntry, error) {
	return s.list(ctx, "")
}

func (s *Service) ListByClient(ctx context.Context, clientName string) ([]domain.ManualEntry, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, domain.ErrInvalidClient
	}
	return s.list(ctx, clientName)
}

func (s *Service) list(ctx context.Context, clientName string) ([]domain.ManualEntry, error) {
	items, err := s.entrystore.Find(ctx,
		&domain.ManualEntry{ClientName: clientName},
		option.WithOrder("created_at desc, id desc"),
	)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ManualEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}
	return entries, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.ErrInvalidID
	}

	entry, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return err
	}
	if entry == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, parsed)
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx, s.db); err != nil {
		return err
	}
	s.log.Warn("manual entries cleared")
	return nil
}
