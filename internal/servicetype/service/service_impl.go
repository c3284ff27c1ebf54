package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carebill/carebill/pkg/db"

	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/servicetype/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("servicetype.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.ServiceType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ServiceType{}, domain.ErrInvalidName
	}
	if req.DefaultRateCents < 0 {
		return domain.ServiceType{}, domain.ErrInvalidRate
	}

	method, err := normalizeBillingMethod(req.BillingMethod)
	if err != nil {
		return domain.ServiceType{}, err
	}

	unitType := strings.TrimSpace(req.UnitType)
	if unitType == "" {
		unitType = defaultUnitType(method)
	}

	existing, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return domain.ServiceType{}, err
	}
	if existing != nil {
		return domain.ServiceType{}, domain.ErrDuplicateName
	}

	now := s.clock.Now()
	serviceType := domain.ServiceType{
		ID:               s.genID.Generate(),
		Code:             slug.Make(name),
		Name:             name,
		Description:      strings.TrimSpace(req.Description),
		IsMedical:        req.IsMedical,
		DefaultRateCents: req.DefaultRateCents,
		BillingMethod:    method,
		UnitType:         unitType,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &serviceType); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.ServiceType{}, domain.ErrDuplicateName
		}
		return domain.ServiceType{}, err
	}

	s.log.Info("service type created",
		zap.String("id", serviceType.ID.String()),
		zap.String("name", serviceType.Name),
		zap.String("billing_method", serviceType.BillingMethod),
	)

	return serviceType, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (domain.ServiceType, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.ServiceType{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.ServiceType{}, err
	}
	if item == nil {
		return domain.ServiceType{}, domain.ErrNotFound
	}

	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.IsMedical != nil {
		item.IsMedical = *req.IsMedical
	}
	if req.DefaultRateCents != nil {
		if *req.DefaultRateCents < 0 {
			return domain.ServiceType{}, domain.ErrInvalidRate
		}
		item.DefaultRateCents = *req.DefaultRateCents
	}
	if req.BillingMethod != nil {
		method, err := normalizeBillingMethod(*req.BillingMethod)
		if err != nil {
			return domain.ServiceType{}, err
		}
		item.BillingMethod = method
	}
	if req.UnitType != nil {
		item.UnitType = strings.TrimSpace(*req.UnitType)
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.ServiceType{}, err
	}

	return *item, nil
}

// Deactivate soft-deletes a service type. Historical ledger lines keep
// referring to it by name.
func (s *Service) Deactivate(ctx context.Context, id string) (domain.ServiceType, error) {
	inactive := false
	return s.Update(ctx, domain.UpdateRequest{ID: id, Active: &inactive})
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.ServiceType, error) {
	parsed, err := s.parseID(id)
	if err != nil {
		return domain.ServiceType{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.ServiceType{}, err
	}
	if item == nil {
		return domain.ServiceType{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (domain.ServiceType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ServiceType{}, domain.ErrInvalidName
	}

	item, err := s.repo.FindByName(ctx, s.db, name)
	if err != nil {
		return domain.ServiceType{}, err
	}
	if item == nil {
		return domain.ServiceType{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.ServiceType, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		ActiveOnly:    req.ActiveOnly,
		BillingMethod: strings.TrimSpace(req.BillingMethod),
	})
	if err != nil {
		return nil, err
	}

	serviceTypes := make([]domain.ServiceType, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		serviceTypes = append(serviceTypes, *item)
	}
	return serviceTypes, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func normalizeBillingMethod(value string) (string, error) {
	method := strings.ToLower(strings.TrimSpace(value))
	switch method {
	case domain.BillingMethodHourly, domain.BillingMethodUnit:
		return method, nil
	default:
		return "", domain.ErrInvalidBillingMethod
	}
}

func defaultUnitType(method string) string {
	if method == domain.BillingMethodUnit {
		return "visit"
	}
	return "hour"
}
