package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/carebill/carebill/internal/client/domain"
	"github.com/carebill/carebill/internal/clientservice/domain"
	"github.com/carebill/carebill/internal/clock"
	historydomain "github.com/carebill/carebill/internal/history/domain"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
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
	History      historydomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	clients      clientdomain.Service
	serviceTypes servicetypedomain.Service
	history      historydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("clientservice.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		clients:      p.Clients,
		serviceTypes: p.ServiceTypes,
		history:      p.History,
	}
}

func (s *Service) Configure(ctx context.Context, req domain.ConfigureRequest) (domain.ClientServiceConfig, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.ClientServiceConfig{}, domain.ErrInvalidClient
	}
	if req.Hours < 0 {
		return domain.ClientServiceConfig{}, domain.ErrInvalidQuantity
	}
	if req.CustomRateCents != nil && *req.CustomRateCents < 0 {
		return domain.ClientServiceConfig{}, domain.ErrInvalidQuantity
	}

	serviceType, err := s.lookupServiceType(ctx, req.ServiceTypeName)
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	client, err := s.clients.GetOrCreate(ctx, clientName)
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	existing, err := s.repo.FindConfig(ctx, s.db, client.ID, serviceType.ID)
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	now := s.clock.Now()
	if existing != nil {
		oldHours := existing.Hours
		existing.Hours = req.Hours
		existing.CustomRateCents = req.CustomRateCents
		existing.UpdatedAt = now
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.repo.UpdateConfig(ctx, tx, existing); err != nil {
				return err
			}
			return s.recordHistory(ctx, tx, historydomain.RecordRequest{
				ClientName:   client.Name,
				Action:       historydomain.ActionHoursUpdated,
				ServiceTypes: []string{serviceType.Name},
				OldValue:     formatHours(oldHours),
				NewValue:     formatHours(req.Hours),
			})
		})
		if err != nil {
			return domain.ClientServiceConfig{}, err
		}
		return *existing, nil
	}

	config := domain.ClientServiceConfig{
		ID:              s.genID.Generate(),
		ClientID:        client.ID,
		ServiceTypeID:   serviceType.ID,
		ClientName:      client.Name,
		ServiceTypeName: serviceType.Name,
		Hours:           req.Hours,
		CustomRateCents: req.CustomRateCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertConfig(ctx, tx, &config); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, historydomain.RecordRequest{
			ClientName:   client.Name,
			Action:       historydomain.ActionClientAdded,
			ServiceTypes: []string{serviceType.Name},
			NewValue:     formatHours(req.Hours),
		})
	})
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	s.log.Info("client service configured",
		zap.String("client", client.Name),
		zap.String("service_type", serviceType.Name),
		zap.Float64("hours", req.Hours),
	)

	return config, nil
}

func (s *Service) UpdateHours(ctx context.Context, req domain.UpdateHoursRequest) (domain.ClientServiceConfig, error) {
	if req.Hours < 0 {
		return domain.ClientServiceConfig{}, domain.ErrInvalidQuantity
	}

	config, serviceType, err := s.lookupConfig(ctx, req.ClientName, req.ServiceTypeName)
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	oldHours := config.Hours
	config.Hours = req.Hours
	config.UpdatedAt = s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateConfig(ctx, tx, config); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, historydomain.RecordRequest{
			ClientName:   config.ClientName,
			Action:       historydomain.ActionHoursUpdated,
			ServiceTypes: []string{serviceType.Name},
			OldValue:     formatHours(oldHours),
			NewValue:     formatHours(req.Hours),
			Reason:       req.Reason,
		})
	})
	if err != nil {
		return domain.ClientServiceConfig{}, err
	}

	return *config, nil
}

func (s *Service) ApplyOverride(ctx context.Context, req domain.OverrideRequest) (domain.PeriodOverride, error) {
	if req.Quantity < 0 {
		return domain.PeriodOverride{}, domain.ErrInvalidQuantity
	}

	start := dateOnly(req.StartDate)
	end := dateOnly(req.EndDate)
	if end.Before(start) {
		return domain.PeriodOverride{}, domain.ErrInvalidRange
	}

	config, serviceType, err := s.lookupConfig(ctx, req.ClientName, req.ServiceTypeName)
	if err != nil {
		return domain.PeriodOverride{}, err
	}

	override := domain.PeriodOverride{
		ID:        s.genID.Generate(),
		ConfigID:  config.ID,
		Quantity:  req.Quantity,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(req.Reason),
		CreatedAt: s.clock.Now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertOverride(ctx, tx, &override); err != nil {
			return err
		}
		return s.recordHistory(ctx, tx, historydomain.RecordRequest{
			ClientName:   config.ClientName,
			Action:       historydomain.ActionPeriodOverride,
			ServiceTypes: []string{serviceType.Name},
			OldValue:     formatHours(config.Hours),
			NewValue:     formatHours(req.Quantity),
			Reason:       override.Reason,
			PeriodStart:  &override.StartDate,
			PeriodEnd:    &override.EndDate,
		})
	})
	if err != nil {
		return domain.PeriodOverride{}, err
	}

	s.log.Info("period override applied",
		zap.String("client", config.ClientName),
		zap.String("service_type", serviceType.Name),
		zap.Float64("quantity", req.Quantity),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	return override, nil
}

// Resolve determines the billing quantity and rate in force for one
// pair. Overrides beat the standing agreement for dates they cover;
// custom rates beat the service default. Unit-billed services carry no
// standing quantity, the caller supplies the observed visit count.
func (s *Service) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	serviceType, err := s.lookupServiceType(ctx, req.ServiceTypeName)
	if err != nil {
		return domain.Resolution{}, err
	}

	asOf := s.clock.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	asOf = dateOnly(asOf)

	resolution := domain.Resolution{
		ClientName:      strings.TrimSpace(req.ClientName),
		ServiceTypeName: serviceType.Name,
		BillingMethod:   serviceType.BillingMethod,
		UnitType:        serviceType.UnitType,
		RateCents:       serviceType.DefaultRateCents,
		Source:          domain.SourceServiceDefault,
	}

	var config *domain.ClientServiceConfig
	client, err := s.clients.GetByName(ctx, req.ClientName)
	switch {
	case err == nil:
		config, err = s.repo.FindConfig(ctx, s.db, client.ID, serviceType.ID)
		if err != nil {
			return domain.Resolution{}, err
		}
	case errors.Is(err, clientdomain.ErrNotFound):
		// fall through, unit-billed services resolve without a client
	default:
		return domain.Resolution{}, err
	}

	if config != nil {
		resolution.ClientName = config.ClientName
		if config.CustomRateCents != nil {
			resolution.RateCents = *config.CustomRateCents
			resolution.Source = domain.SourceClientConfig
		}
	}

	if serviceType.BillingMethod != servicetypedomain.BillingMethodHourly {
		return resolution, nil
	}

	if config == nil {
		return domain.Resolution{}, domain.ErrUnconfiguredService
	}

	resolution.Quantity = config.Hours
	override, err := s.repo.FindActiveOverride(ctx, s.db, config.ID, asOf)
	if err != nil {
		return domain.Resolution{}, err
	}
	if override != nil {
		resolution.Quantity = override.Quantity
		resolution.Source = domain.SourceOverride
	}

	return resolution, nil
}

func (s *Service) ListConfigs(ctx context.Context, clientName string) ([]domain.ClientServiceConfig, error) {
	client, err := s.clients.GetByName(ctx, clientName)
	if err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	items, err := s.repo.ListConfigsByClient(ctx, s.db, client.ID)
	if err != nil {
		return nil, err
	}

	configs := make([]domain.ClientServiceConfig, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		configs = append(configs, *item)
	}
	return configs, nil
}

func (s *Service) DeleteClient(ctx context.Context, clientName string) error {
	client, err := s.clients.GetByName(ctx, clientName)
	if err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	configs, err := s.repo.ListConfigsByClient(ctx, s.db, client.ID)
	if err != nil {
		return err
	}
	serviceTypes := make([]string, 0, len(configs))
	for _, config := range configs {
		if config == nil {
			continue
		}
		serviceTypes = append(serviceTypes, config.ServiceTypeName)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteOverridesByClient(ctx, tx, client.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteConfigsByClient(ctx, tx, client.ID); err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM clients WHERE id = ?`, client.ID).Error; err != nil {
			return err
		}

		if err := s.recordHistory(ctx, tx, historydomain.RecordRequest{
			ClientName:   client.Name,
			Action:       historydomain.ActionClientDeleted,
			ServiceTypes: serviceTypes,
			Details:      fmt.Sprintf("removed %d service configuration(s)", len(serviceTypes)),
		}); err != nil {
			return err
		}

		s.log.Info("client deleted",
			zap.String("client", client.Name),
			zap.Int("configs", len(serviceTypes)),
		)
		return nil
	})
}

func (s *Service) lookupServiceType(ctx context.Context, name string) (servicetypedomain.ServiceType, error) {
	serviceType, err := s.serviceTypes.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, servicetypedomain.ErrNotFound) || errors.Is(err, servicetypedomain.ErrInvalidName) {
			return servicetypedomain.ServiceType{}, domain.ErrUnknownServiceType
		}
		return servicetypedomain.ServiceType{}, err
	}
	return serviceType, nil
}

func (s *Service) lookupConfig(ctx context.Context, clientName, serviceTypeName string) (*domain.ClientServiceConfig, servicetypedomain.ServiceType, error) {
	serviceType, err := s.lookupServiceType(ctx, serviceTypeName)
	if err != nil {
		return nil, servicetypedomain.ServiceType{}, err
	}

	client, err := s.clients.GetByName(ctx, clientName)
	if err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) {
			return nil, servicetypedomain.ServiceType{}, domain.ErrNotFound
		}
		return nil, servicetypedomain.ServiceType{}, err
	}

	config, err := s.repo.FindConfig(ctx, s.db, client.ID, serviceType.ID)
	if err != nil {
		return nil, servicetypedomain.ServiceType{}, err
	}
	if config == nil {
		return nil, servicetypedomain.ServiceType{}, domain.ErrNotFound
	}
	return config, serviceType, nil
}

// recordHistory writes the audit entry through the mutation's
// transaction; a mutation must not report success without its entry.
func (s *Service) recordHistory(ctx context.Context, tx *gorm.DB, req historydomain.RecordRequest) error {
	if s.history == nil {
		return nil
	}
	if _, err := s.history.RecordInTx(ctx, tx, req); err != nil {
		s.log.Error("history entry not recorded",
			zap.String("client", req.ClientName),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func formatHours(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
