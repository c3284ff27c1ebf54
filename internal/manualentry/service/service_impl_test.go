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
	clientsvc "github.com/carebill/carebill/internal/client/service"
	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/manualentry/domain"
	"github.com/carebill/carebill/internal/manualentry/repository"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
	servicetyperepo "github.com/carebill/carebill/internal/servicetype/repository"
	servicetypesvc "github.com/carebill/carebill/internal/servicetype/service"
)

func setup(t *testing.T) (domain.Service, clientdomain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&servicetypedomain.ServiceType{},
		&domain.ManualEntry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	clients := clientsvc.New(clientsvc.Params{DB: db, Log: log, GenID: node, Repo: clientrepo.Provide()})
	types := servicetypesvc.New(servicetypesvc.Params{DB: db, Log: log, GenID: node, Clock: fake, Repo: servicetyperepo.Provide()})

	_, err = types.Create(context.Background(), servicetypedomain.CreateRequest{
		Name:             "Wellness Check",
		DefaultRateCents: 1250,
		BillingMethod:    servicetypedomain.BillingMethodUnit,
	})
	require.NoError(t, err)

	svc := New(Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Repo:         repository.Provide(),
		Clients:      clients,
		ServiceTypes: types,
	})
	return svc, clients
}

func TestCreateLazilyCreatesClient(t *testing.T) {
	svc, clients := setup(t)
	ctx := context.Background()

	entry, err := svc.Create(ctx, domain.CreateRequest{
		ClientName:  "Tom Brown",
		ServiceType: "Wellness Check",
		VisitCount:  3,
	})
	require.NoError(t, err)
	require.Equal(t, 3, entry.VisitCount)

	client, err := clients.GetByName(ctx, "Tom Brown")
	require.NoError(t, err)
	require.Equal(t, entry.ClientID, client.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{ClientName: "", ServiceType: "Wellness Check", VisitCount: 1})
	require.ErrorIs(t, err, domain.ErrInvalidClient)

	_, err = svc.Create(ctx, domain.CreateRequest{ClientName: "Tom Brown", ServiceType: "Wellness Check", VisitCount: 0})
	require.ErrorIs(t, err, domain.ErrInvalidVisitCount)

	_, err = svc.Create(ctx, domain.CreateRequest{ClientName: "Tom Brown", ServiceType: "Speech Therapy", VisitCount: 1})
	require.ErrorIs(t, err, domain.ErrInvalidServiceType)

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(ctx, domain.CreateRequest{
		ClientName: "Tom Brown", ServiceType: "Wellness Check", VisitCount: 1,
		StartDate: &start, EndDate: &end,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestListByClientAndDelete(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateRequest{ClientName: "Tom Brown", ServiceType: "Wellness Check", VisitCount: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{ClientName: "Ann Lee", ServiceType: "Wellness Check", VisitCount: 1})
	require.NoError(t, err)

	entries, err := svc.ListByClient(ctx, "Tom Brown")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, svc.Delete(ctx, first.ID.String()))
	require.ErrorIs(t, svc.Delete(ctx, first.ID.String()), domain.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, svc.Clear(ctx))
	all, err = svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}
