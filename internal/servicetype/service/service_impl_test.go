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

	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/servicetype/domain"
	"github.com/carebill/carebill/internal/servicetype/repository"
)

func setupService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ServiceType{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestCreateStampsTimestampsFromClock(t *testing.T) {
	svc, fake := setupService(t)

	created, err := svc.Create(context.Background(), domain.CreateRequest{
		Name:             "Personal Care",
		DefaultRateCents: 3500,
		BillingMethod:    domain.BillingMethodHourly,
	})
	require.NoError(t, err)
	require.Equal(t, fake.Now(), created.CreatedAt)
	require.Equal(t, fake.Now(), created.UpdatedAt)
	require.Equal(t, "personal-care", created.Code)
	require.True(t, created.Active)
}

func TestUpdateStampsUpdatedAtFromClock(t *testing.T) {
	svc, fake := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:             "Personal Care",
		DefaultRateCents: 3500,
		BillingMethod:    domain.BillingMethodHourly,
	})
	require.NoError(t, err)

	fake.Advance(2 * time.Hour)
	rate := int64(4000)
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:               created.ID.String(),
		DefaultRateCents: &rate,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4000), updated.DefaultRateCents)
	require.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Second)
	require.True(t, fake.Now().Equal(updated.UpdatedAt))
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt))
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		Name:             "Personal Care",
		DefaultRateCents: 3500,
		BillingMethod:    domain.BillingMethodHourly,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{
		Name:             "  personal care ",
		DefaultRateCents: 3600,
		BillingMethod:    domain.BillingMethodHourly,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:             "Wellness Check",
		DefaultRateCents: 1250,
		BillingMethod:    domain.BillingMethodUnit,
	})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(ctx, created.ID.String())
	require.NoError(t, err)
	require.False(t, deactivated.Active)

	fetched, err := svc.GetByName(ctx, "Wellness Check")
	require.NoError(t, err)
	require.False(t, fetched.Active)
}
