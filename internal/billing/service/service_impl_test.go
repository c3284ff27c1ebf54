package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/billing/domain"
	clientdomain "github.com/carebill/carebill/internal/client/domain"
	clientrepo "github.com/carebill/carebill/internal/client/repository"
	clientsvc "github.com/carebill/carebill/internal/client/service"
	clientservicedomain "github.com/carebill/carebill/internal/clientservice/domain"
	clientservicerepo "github.com/carebill/carebill/internal/clientservice/repository"
	clientservicesvc "github.com/carebill/carebill/internal/clientservice/service"
	"github.com/carebill/carebill/internal/clock"
	historydomain "github.com/carebill/carebill/internal/history/domain"
	historyrepo "github.com/carebill/carebill/internal/history/repository"
	historysvc "github.com/carebill/carebill/internal/history/service"
	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
	manualentrydomain "github.com/carebill/carebill/internal/manualentry/domain"
	manualentryrepo "github.com/carebill/carebill/internal/manualentry/repository"
	manualentrysvc "github.com/carebill/carebill/internal/manualentry/service"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
	servicetyperepo "github.com/carebill/carebill/internal/servicetype/repository"
	servicetypesvc "github.com/carebill/carebill/internal/servicetype/service"
)

type fixture struct {
	billing  domain.Service
	resolver clientservicedomain.Service
	manual   manualentrydomain.Service
	types    servicetypedomain.Service
	clock    *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&servicetypedomain.ServiceType{},
		&clientservicedomain.ClientServiceConfig{},
		&clientservicedomain.PeriodOverride{},
		&manualentrydomain.ManualEntry{},
		&historydomain.HistoryEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 1, 31, 17, 0, 0, 0, time.UTC))

	clients := clientsvc.New(clientsvc.Params{DB: db, Log: log, GenID: node, Repo: clientrepo.Provide()})
	types := servicetypesvc.New(servicetypesvc.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: servicetyperepo.Provide()})
	history := historysvc.New(historysvc.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: historyrepo.Provide()})
	resolver := clientservicesvc.New(clientservicesvc.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: clientservicerepo.Provide(), Clients: clients, ServiceTypes: types, History: history,
	})
	manual := manualentrysvc.New(manualentrysvc.Params{
		DB: db, Log: log, GenID: node, Clock: fake,
		Repo: manualentryrepo.Provide(), Clients: clients, ServiceTypes: types,
	})

	billing := New(Params{Log: log, Clock: fake, Resolver: resolver, ManualEntries: manual})

	return &fixture{billing: billing, resolver: resolver, manual: manual, types: types, clock: fake}
}

func (f *fixture) addServiceType(t *testing.T, name string, rateCents int64, method string) {
	t.Helper()
	_, err := f.types.Create(context.Background(), servicetypedomain.CreateRequest{
		Name: name, DefaultRateCents: rateCents, BillingMethod: method,
	})
	require.NoError(t, err)
}

func visits(client, serviceType string, n int) []ingestdomain.VisitRecord {
	records := make([]ingestdomain.VisitRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, ingestdomain.VisitRecord{
			ClientName: client, EmployeeName: "Jane Doe", ServiceType: serviceType,
		})
	}
	return records
}

func TestCalculateHourlyBillsConfiguredHoursNotVisits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Home Health - Basic", 4145, servicetypedomain.BillingMethodHourly)

	_, err := f.resolver.Configure(ctx, clientservicedomain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Home Health - Basic", Hours: 20,
	})
	require.NoError(t, err)

	ledger, err := f.billing.Calculate(ctx, domain.CalculateRequest{
		Records: visits("Mary Smith", "Home Health - Basic", 3),
	})
	require.NoError(t, err)
	require.Len(t, ledger.Clients, 1)
	require.Len(t, ledger.Clients[0].Lines, 1)

	line := ledger.Clients[0].Lines[0]
	require.Equal(t, 3, line.Visits)
	require.Equal(t, float64(20), line.Quantity)
	require.Equal(t, int64(4145), line.RateCents)
	require.Equal(t, int64(82900), line.TotalCents)
	require.Equal(t, int64(82900), ledger.GrandTotalCents)
}

func TestCalculateUnitBillsObservedVisits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Wellness Check", 1250, servicetypedomain.BillingMethodUnit)

	_, err := f.manual.Create(ctx, manualentrydomain.CreateRequest{
		ClientName: "Tom Brown", ServiceType: "Wellness Check", VisitCount: 3,
	})
	require.NoError(t, err)

	ledger, err := f.billing.Calculate(ctx, domain.CalculateRequest{
		Records: visits("Tom Brown", "Wellness Check", 7),
	})
	require.NoError(t, err)

	line := ledger.Clients[0].Lines[0]
	require.Equal(t, 10, line.Visits)
	require.Equal(t, float64(10), line.Quantity)
	require.Equal(t, int64(12500), line.TotalCents)
	require.ElementsMatch(t, []string{domain.SourceElectronic, domain.SourceManual}, line.Sources)
}

func TestCalculateMissingRateLineIsKeptButExcluded(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Home Health - Basic", 4145, servicetypedomain.BillingMethodHourly)

	_, err := f.resolver.Configure(ctx, clientservicedomain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Home Health - Basic", Hours: 20,
	})
	require.NoError(t, err)

	records := append(
		visits("Mary Smith", "Home Health - Basic", 1),
		visits("Mary Smith", "Speech Therapy", 2)...,
	)
	ledger, err := f.billing.Calculate(ctx, domain.CalculateRequest{Records: records})
	require.NoError(t, err)

	require.Len(t, ledger.Clients, 1)
	require.Len(t, ledger.Clients[0].Lines, 2)
	require.Equal(t, 1, ledger.MissingRateLines)

	var missing *domain.LedgerLine
	for i := range ledger.Clients[0].Lines {
		if ledger.Clients[0].Lines[i].ServiceType == "Speech Therapy" {
			missing = &ledger.Clients[0].Lines[i]
		}
	}
	require.NotNil(t, missing)
	require.True(t, missing.MissingRate)
	require.Zero(t, missing.TotalCents)
	require.Zero(t, missing.RateCents)
	require.Equal(t, 2, missing.Visits)

	require.Equal(t, int64(82900), ledger.GrandTotalCents)
	require.Equal(t, 3, ledger.TotalVisits)
}

func TestCalculateUnconfiguredHourlyIsMissingRate(t *testing.T) {
	f := setup(t)
	f.addServiceType(t, "Home Health - Basic", 4145, servicetypedomain.BillingMethodHourly)

	ledger, err := f.billing.Calculate(context.Background(), domain.CalculateRequest{
		Records: visits("Unknown Client", "Home Health - Basic", 2),
	})
	require.NoError(t, err)
	require.Equal(t, 1, ledger.MissingRateLines)
	require.Zero(t, ledger.GrandTotalCents)
}

func TestCalculateOverrideChangesHourlyQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Home Health - Basic", 4145, servicetypedomain.BillingMethodHourly)

	_, err := f.resolver.Configure(ctx, clientservicedomain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Home Health - Basic", Hours: 20,
	})
	require.NoError(t, err)

	_, err = f.resolver.ApplyOverride(ctx, clientservicedomain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Home Health - Basic",
		Quantity:  12,
		StartDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	asOf := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ledger, err := f.billing.Calculate(ctx, domain.CalculateRequest{
		Records: visits("Mary Smith", "Home Health - Basic", 1),
		AsOf:    &asOf,
	})
	require.NoError(t, err)

	line := ledger.Clients[0].Lines[0]
	require.Equal(t, float64(12), line.Quantity)
	require.Equal(t, int64(49740), line.TotalCents)
	require.Equal(t, clientservicedomain.SourceOverride, line.RateSource)
}

func TestCalculateReconciles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Home Health - Basic", 4145, servicetypedomain.BillingMethodHourly)
	f.addServiceType(t, "Wellness Check", 1250, servicetypedomain.BillingMethodUnit)

	_, err := f.resolver.Configure(ctx, clientservicedomain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Home Health - Basic", Hours: 20,
	})
	require.NoError(t, err)

	records := append(
		visits("Mary Smith", "Home Health - Basic", 2),
		visits("Tom Brown", "Wellness Check", 4)...,
	)
	records = append(records, visits("Ann Lee", "Speech Therapy", 1)...)

	ledger, err := f.billing.Calculate(ctx, domain.CalculateRequest{Records: records})
	require.NoError(t, err)

	var lineSum, clientSum int64
	for _, statement := range ledger.Clients {
		clientSum += statement.TotalChargeCents
		for _, line := range statement.Lines {
			if line.MissingRate {
				continue
			}
			lineSum += line.TotalCents
		}
	}
	require.Equal(t, ledger.GrandTotalCents, lineSum)
	require.Equal(t, ledger.GrandTotalCents, clientSum)
}

func TestCalculateNoVisits(t *testing.T) {
	f := setup(t)

	_, err := f.billing.Calculate(context.Background(), domain.CalculateRequest{})
	require.ErrorIs(t, err, domain.ErrNoVisits)
}
