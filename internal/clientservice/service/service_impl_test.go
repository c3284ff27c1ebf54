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

	clientdomain "github.com/carebill/carebill/internal/client/domain"
	clientrepo "github.com/carebill/carebill/internal/client/repository"
	clientservice "github.com/carebill/carebill/internal/client/service"
	"github.com/carebill/carebill/internal/clientservice/domain"
	"github.com/carebill/carebill/internal/clientservice/repository"
	"github.com/carebill/carebill/internal/clock"
	historydomain "github.com/carebill/carebill/internal/history/domain"
	historyrepo "github.com/carebill/carebill/internal/history/repository"
	historyservice "github.com/carebill/carebill/internal/history/service"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
	servicetyperepo "github.com/carebill/carebill/internal/servicetype/repository"
	servicetypeservice "github.com/carebill/carebill/internal/servicetype/service"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	clients clientdomain.Service
	types   servicetypedomain.Service
	history historydomain.Service
	clock   *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&servicetypedomain.ServiceType{},
		&domain.ClientServiceConfig{},
		&domain.PeriodOverride{},
		&historydomain.HistoryEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC))

	clients := clientservice.New(clientservice.Params{DB: db, Log: log, GenID: node, Repo: clientrepo.Provide()})
	types := servicetypeservice.New(servicetypeservice.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: servicetyperepo.Provide()})
	history := historyservice.New(historyservice.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: historyrepo.Provide()})

	svc := New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		Clients:      clients,
		ServiceTypes: types,
		History:      history,
	})

	return &fixture{db: db, svc: svc, clients: clients, types: types, history: history, clock: fake}
}

func (f *fixture) addServiceType(t *testing.T, name string, rateCents int64, method string) servicetypedomain.ServiceType {
	t.Helper()
	serviceType, err := f.types.Create(context.Background(), servicetypedomain.CreateRequest{
		Name:             name,
		DefaultRateCents: rateCents,
		BillingMethod:    method,
	})
	require.NoError(t, err)
	return serviceType
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestConfigureCreatesClientLazily(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	config, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName:      "Mary Smith",
		ServiceTypeName: "Personal Care",
		Hours:           10,
	})
	require.NoError(t, err)
	require.Equal(t, "Mary Smith", config.ClientName)
	require.Equal(t, float64(10), config.Hours)

	client, err := f.clients.GetByName(ctx, "Mary Smith")
	require.NoError(t, err)
	require.Equal(t, config.ClientID, client.ID)

	hist, err := f.history.Query(ctx, historydomain.QueryRequest{ClientName: "Mary Smith"})
	require.NoError(t, err)
	entries := hist.Entries
	require.Len(t, entries, 1)
	require.Equal(t, historydomain.ActionClientAdded, entries[0].Action)
}

func TestConfigureIsIdempotentUpsert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	first, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	second, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 12,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, float64(12), second.Hours)

	configs, err := f.svc.ListConfigs(ctx, "Mary Smith")
	require.NoError(t, err)
	require.Len(t, configs, 1)
}

func TestConfigureUnknownServiceType(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Configure(context.Background(), domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Speech Therapy", Hours: 5,
	})
	require.ErrorIs(t, err, domain.ErrUnknownServiceType)
}

func TestUpdateHoursRequiresConfig(t *testing.T) {
	f := setup(t)
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.UpdateHours(context.Background(), domain.UpdateHoursRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 8,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateHoursRecordsOldAndNew(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateHours(ctx, domain.UpdateHoursRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 20, Reason: "care plan revised",
	})
	require.NoError(t, err)
	require.Equal(t, float64(20), updated.Hours)

	hist, err := f.history.Query(ctx, historydomain.QueryRequest{ClientName: "Mary Smith"})
	require.NoError(t, err)
	entries := hist.Entries
	require.Equal(t, historydomain.ActionHoursUpdated, entries[0].Action)
	require.Equal(t, "10", entries[0].OldValue)
	require.Equal(t, "20", entries[0].NewValue)
	require.Equal(t, "care plan revised", entries[0].Reason)
}

func TestApplyOverrideValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 5, StartDate: date(2025, 2, 10), EndDate: date(2025, 2, 1),
	})
	require.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 5, StartDate: date(2025, 2, 1), EndDate: date(2025, 2, 10),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolvePrecedence(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 15, StartDate: date(2025, 1, 10), EndDate: date(2025, 1, 20),
		Reason: "hospital stay",
	})
	require.NoError(t, err)

	inside := date(2025, 1, 15)
	resolution, err := f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", AsOf: &inside,
	})
	require.NoError(t, err)
	require.Equal(t, float64(15), resolution.Quantity)
	require.Equal(t, domain.SourceOverride, resolution.Source)
	require.Equal(t, int64(3500), resolution.RateCents)

	outside := date(2025, 2, 1)
	resolution, err = f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", AsOf: &outside,
	})
	require.NoError(t, err)
	require.Equal(t, float64(10), resolution.Quantity)
	require.Equal(t, domain.SourceServiceDefault, resolution.Source)
}

func TestResolveBoundaryDatesAreInclusive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 15, StartDate: date(2025, 1, 10), EndDate: date(2025, 1, 20),
	})
	require.NoError(t, err)

	for _, asOf := range []time.Time{date(2025, 1, 10), date(2025, 1, 20)} {
		asOf := asOf
		resolution, err := f.svc.Resolve(ctx, domain.ResolveRequest{
			ClientName: "Mary Smith", ServiceTypeName: "Personal Care", AsOf: &asOf,
		})
		require.NoError(t, err)
		require.Equal(t, float64(15), resolution.Quantity)
	}
}

func TestResolveOverlappingOverridesLatestCreatedWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 15, StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 31),
	})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 18, StartDate: date(2025, 1, 10), EndDate: date(2025, 1, 20),
	})
	require.NoError(t, err)

	asOf := date(2025, 1, 15)
	resolution, err := f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", AsOf: &asOf,
	})
	require.NoError(t, err)
	require.Equal(t, float64(18), resolution.Quantity)
}

func TestResolveCustomRateBeatsDefault(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	customRate := int64(4000)
	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10, CustomRateCents: &customRate,
	})
	require.NoError(t, err)

	resolution, err := f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), resolution.RateCents)
	require.Equal(t, domain.SourceClientConfig, resolution.Source)
}

func TestResolveErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Speech Therapy",
	})
	require.ErrorIs(t, err, domain.ErrUnknownServiceType)

	_, err = f.svc.Resolve(ctx, domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
	})
	require.ErrorIs(t, err, domain.ErrUnconfiguredService)
}

func TestResolveUnitServiceWithoutConfig(t *testing.T) {
	f := setup(t)
	f.addServiceType(t, "Wellness Check", 1250, servicetypedomain.BillingMethodUnit)

	resolution, err := f.svc.Resolve(context.Background(), domain.ResolveRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Wellness Check",
	})
	require.NoError(t, err)
	require.Equal(t, servicetypedomain.BillingMethodUnit, resolution.BillingMethod)
	require.Equal(t, int64(1250), resolution.RateCents)
	require.Equal(t, domain.SourceServiceDefault, resolution.Source)
	require.Zero(t, resolution.Quantity)
}

func TestDeleteClientCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)
	_, err = f.svc.ApplyOverride(ctx, domain.OverrideRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care",
		Quantity: 15, StartDate: date(2025, 1, 10), EndDate: date(2025, 1, 20),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteClient(ctx, "Mary Smith"))

	_, err = f.clients.GetByName(ctx, "Mary Smith")
	require.ErrorIs(t, err, clientdomain.ErrNotFound)

	hist, err := f.history.Query(ctx, historydomain.QueryRequest{ClientName: "Mary Smith"})
	require.NoError(t, err)
	entries := hist.Entries
	require.Equal(t, historydomain.ActionClientDeleted, entries[0].Action)

	require.ErrorIs(t, f.svc.DeleteClient(ctx, "Mary Smith"), domain.ErrNotFound)
}

func TestConfigureRollsBackWhenHistoryInsertFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	require.NoError(t, f.db.Exec("DROP TABLE history_entries").Error)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.Error(t, err)

	// The lazily created client rolls back with the config.
	_, err = f.clients.GetByName(ctx, "Mary Smith")
	require.ErrorIs(t, err, clientdomain.ErrNotFound)
}

func TestUpdateHoursFailsWhenHistoryInsertFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Exec("DROP TABLE history_entries").Error)

	_, err = f.svc.UpdateHours(ctx, domain.UpdateHoursRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 20,
	})
	require.Error(t, err)

	configs, err := f.svc.ListConfigs(ctx, "Mary Smith")
	require.NoError(t, err)
	require.Len(t, configs, 1)
	require.Equal(t, float64(10), configs[0].Hours)
}

func TestDeleteClientRollsBackWhenHistoryInsertFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addServiceType(t, "Personal Care", 3500, servicetypedomain.BillingMethodHourly)

	_, err := f.svc.Configure(ctx, domain.ConfigureRequest{
		ClientName: "Mary Smith", ServiceTypeName: "Personal Care", Hours: 10,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Exec("DROP TABLE history_entries").Error)

	require.Error(t, f.svc.DeleteClient(ctx, "Mary Smith"))

	client, err := f.clients.GetByName(ctx, "Mary Smith")
	require.NoError(t, err)
	require.Equal(t, "Mary Smith", client.Name)

	configs, err := f.svc.ListConfigs(ctx, "Mary Smith")
	require.NoError(t, err)
	require.Len(t, configs, 1)
}
