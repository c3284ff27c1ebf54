package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carebill/carebill/internal/billing/domain"
	clientservicedomain "github.com/carebill/carebill/internal/clientservice/domain"
	"github.com/carebill/carebill/internal/clock"
	manualentrydomain "github.com/carebill/carebill/internal/manualentry/domain"
	"github.com/carebill/carebill/internal/observability/metrics"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Resolver      clientservicedomain.Service
	ManualEntries manualentrydomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

type Service struct {
	log           *zap.Logger
	clock         clock.Clock
	resolver      clientservicedomain.Service
	manualEntries manualentrydomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:           p.Log.Named("billing.service"),
		clock:         p.Clock,
		resolver:      p.Resolver,
		manualEntries: p.ManualEntries,
		metrics:       p.Metrics,
	}
}

type pairKey struct {
	client      string
	serviceType string
}

type pairTally struct {
	visits     int
	electronic bool
	manual     bool
}

func (s *Service) Calculate(ctx context.Context, req domain.CalculateRequest) (domain.Ledger, error) {
	now := s.clock.Now()
	asOf := now
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	tallies := make(map[pairKey]*pairTally)
	order := make([]pairKey, 0)

	observe := func(client, serviceType string, visits int, source string) {
		client = strings.TrimSpace(client)
		serviceType = strings.TrimSpace(serviceType)
		if client == "" || serviceType == "" || visits <= 0 {
			return
		}
		key := pairKey{client: client, serviceType: serviceType}
		tally, ok := tallies[key]
		if !ok {
			tally = &pairTally{}
			tallies[key] = tally
			order = append(order, key)
		}
		tally.visits += visits
		switch source {
		case domain.SourceManual:
			tally.manual = true
		default:
			tally.electronic = true
		}
	}

	for _, record := range req.Records {
		observe(record.ClientName, record.ServiceType, 1, domain.SourceElectronic)
	}

	manual, err := s.manualEntries.List(ctx)
	if err != nil {
		return domain.Ledger{}, err
	}
	for _, entry := range manual {
		observe(entry.ClientName, entry.ServiceType, entry.VisitCount, domain.SourceManual)
	}

	if len(order) == 0 {
		return domain.Ledger{}, domain.ErrNoVisits
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].client != order[j].client {
			return order[i].client < order[j].client
		}
		return order[i].serviceType < order[j].serviceType
	})

	statements := make(map[string]*domain.ClientStatement)
	clientOrder := make([]string, 0)

	ledger := domain.Ledger{GeneratedAt: now, AsOf: asOf}
	for _, key := range order {
		tally := tallies[key]

		line, err := s.buildLine(ctx, key, tally, asOf)
		if err != nil {
			return domain.Ledger{}, err
		}

		statement, ok := statements[key.client]
		if !ok {
			statement = &domain.ClientStatement{ClientName: key.client}
			statements[key.client] = statement
			clientOrder = append(clientOrder, key.client)
		}
		statement.Lines = append(statement.Lines, line)
		statement.TotalVisits += line.Visits
		ledger.TotalVisits += line.Visits

		if line.MissingRate {
			ledger.MissingRateLines++
			if s.metrics != nil {
				s.metrics.RecordMissingRateLine(ctx, line.ServiceType)
			}
			continue
		}
		statement.TotalChargeCents += line.TotalCents
		ledger.GrandTotalCents += line.TotalCents
	}

	ledger.Clients = make([]domain.ClientStatement, 0, len(clientOrder))
	for _, name := range clientOrder {
		ledger.Clients = append(ledger.Clients, *statements[name])
	}

	if s.metrics != nil {
		s.metrics.RecordBillingRun(ctx)
	}
	s.log.Info("billing run completed",
		zap.Int("clients", len(ledger.Clients)),
		zap.Int("visits", ledger.TotalVisits),
		zap.Int64("grand_total_cents", ledger.GrandTotalCents),
		zap.Int("missing_rate_lines", ledger.MissingRateLines),
	)

	return ledger, nil
}

func (s *Service) buildLine(ctx context.Context, key pairKey, tally *pairTally, asOf time.Time) (domain.LedgerLine, error) {
	line := domain.LedgerLine{
		ClientName:  key.client,
		ServiceType: key.serviceType,
		Visits:      tally.visits,
		Sources:     sources(tally),
	}

	resolution, err := s.resolver.Resolve(ctx, clientservicedomain.ResolveRequest{
		ClientName:      key.client,
		ServiceTypeName: key.serviceType,
		AsOf:            &asOf,
	})
	switch {
	case err == nil:
	case errors.Is(err, clientservicedomain.ErrUnknownServiceType),
		errors.Is(err, clientservicedomain.ErrUnconfiguredService):
		line.MissingRate = true
		s.log.Warn("no billable rate for visit pair",
			zap.String("client", key.client),
			zap.String("service_type", key.serviceType),
			zap.Error(err),
		)
		return line, nil
	default:
		return domain.LedgerLine{}, err
	}

	line.BillingMethod = resolution.BillingMethod
	line.UnitType = resolution.UnitType
	line.RateCents = resolution.RateCents
	line.RateSource = resolution.Source

	if resolution.BillingMethod == servicetypedomain.BillingMethodUnit {
		line.Quantity = float64(tally.visits)
	} else {
		line.Quantity = resolution.Quantity
	}
	line.TotalCents = roundMoney(line.Quantity * float64(line.RateCents))

	return line, nil
}

func sources(tally *pairTally) []string {
	out := make([]string, 0, 2)
	if tally.electronic {
		out = append(out, domain.SourceElectronic)
	}
	if tally.manual {
		out = append(out, domain.SourceManual)
	}
	return out
}

// roundMoney rounds a raw cent amount half-up, once per line.
func roundMoney(raw float64) int64 {
	return int64(math.Floor(raw + 0.5))
}
