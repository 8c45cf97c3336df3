//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/db"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	domain "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	ctx := context.Background()
	conn, err := db.NewPostgres(ctx, dsn, db.PoolConfig{})
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(ctx, conn, "../../migrations"))
	_, err = conn.ExecContext(ctx, `TRUNCATE notifications, order_status_history, livrables, orders, order_sequences,
		service_commission_overrides, global_settings, services, users CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func seedOrder(t *testing.T, repos *Repositories) *entity.Order {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	client := &entity.User{Username: "client_" + uuid.NewString()[:6], Email: uuid.NewString() + "@example.com",
		PasswordHash: "x", Role: valueobject.RoleClient, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repos.Users.Create(ctx, client))

	serviceID := uuid.New()
	_, err := repos.Orders.db.ExecContext(ctx, `INSERT INTO services (id, name) VALUES ($1, 'Logo')`, serviceID)
	require.NoError(t, err)

	order := &entity.Order{
		ID:         uuid.New(),
		ClientID:   client.ID,
		ServiceID:  serviceID,
		Status:     valueobject.OrderStatusPending,
		DeadlineAt: now.Add(72 * time.Hour),
		TotalPrice: decimal.NewFromInt(1000),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	history := entity.NewStatusHistory(order.ID, order.Status, nil, "", now)
	require.NoError(t, repos.Orders.Create(ctx, order, history))
	return order
}

func TestOrderRepository_NumbersAndCAS(t *testing.T) {
	repos := New(openTestDB(t))
	ctx := context.Background()

	first := seedOrder(t, repos)
	second := seedOrder(t, repos)
	year := first.CreatedAt.Year()
	assert.Equal(t, entity.FormatOrderNumber(year, 1), first.OrderNumber)
	assert.Equal(t, entity.FormatOrderNumber(year, 2), second.OrderNumber)

	first.Status = valueobject.OrderStatusConfirmed
	require.NoError(t, repos.Orders.Save(ctx, domain.OrderChange{
		Order:           first,
		ExpectedVersion: 1,
		History:         entity.NewStatusHistory(first.ID, first.Status, nil, "", time.Now().UTC()),
	}))
	assert.Equal(t, int64(2), first.Version)

	err := repos.Orders.Save(ctx, domain.OrderChange{Order: first, ExpectedVersion: 1})
	assert.True(t, apperror.IsConcurrentModification(err))

	history, err := repos.History.ListByOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, valueobject.OrderStatusConfirmed, history[0].Status)
}

func TestSettingsRepository_Singleton(t *testing.T) {
	repos := New(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	got, err := repos.Settings.GetOrCreate(ctx, entity.DefaultGlobalSettings(now))
	require.NoError(t, err)
	again, err := repos.Settings.GetOrCreate(ctx, entity.DefaultGlobalSettings(now))
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)

	err = repos.Settings.Create(ctx, entity.DefaultGlobalSettings(now))
	assert.ErrorIs(t, err, apperror.ErrSettingsAlreadyExist)
}
