package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

func seedOrder(t *testing.T, repo *OrderRepository, created time.Time) *entity.Order {
	t.Helper()
	o, err := entity.NewOrder(entity.NewOrderParams{
		ClientID:   uuid.New(),
		ServiceID:  uuid.New(),
		DeadlineAt: created.Add(48 * time.Hour),
		TotalPrice: decimal.NewFromInt(500),
		Now:        created,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o, nil))
	return o
}

func TestOrderRepository_NumbersPerYear(t *testing.T) {
	repo := NewStore().Orders()

	a := seedOrder(t, repo, time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	b := seedOrder(t, repo, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC))
	c := seedOrder(t, repo, time.Date(2026, 1, 2, 1, 0, 0, 0, time.UTC))

	assert.Equal(t, "ORD-2025-0001", a.OrderNumber)
	assert.Equal(t, "ORD-2026-0001", b.OrderNumber)
	assert.Equal(t, "ORD-2026-0002", c.OrderNumber)
}

func TestOrderRepository_SaveChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Orders()
	o := seedOrder(t, repo, time.Now())

	first, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)

	first.Status = valueobject.OrderStatusConfirmed
	require.NoError(t, repo.Save(ctx, repository.OrderChange{
		Order:           first,
		ExpectedVersion: first.Version,
		History:         entity.NewStatusHistory(o.ID, first.Status, nil, "", time.Now()),
	}))
	assert.Equal(t, int64(2), first.Version)

	second.Status = valueobject.OrderStatusCancelled
	err = repo.Save(ctx, repository.OrderChange{
		Order:           second,
		ExpectedVersion: second.Version,
		History:         entity.NewStatusHistory(o.ID, second.Status, nil, "stale", time.Now()),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))

	stored, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusConfirmed, stored.Status)

	history, err := store.History().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Orders()
	o := seedOrder(t, repo, time.Now())

	loaded, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	loaded.Status = valueobject.OrderStatusCancelled

	again, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPending, again.Status)
}

func TestHistoryRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	o := seedOrder(t, store.Orders(), time.Now())
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	store.history = append(store.history,
		entity.NewStatusHistory(o.ID, valueobject.OrderStatusPending, nil, "", base),
		entity.NewStatusHistory(o.ID, valueobject.OrderStatusConfirmed, nil, "", base.Add(time.Hour)),
		entity.NewStatusHistory(uuid.New(), valueobject.OrderStatusPending, nil, "", base.Add(2*time.Hour)),
	)

	history, err := store.History().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, valueobject.OrderStatusConfirmed, history[0].Status)
}

func TestSettingsRepository_Singleton(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Settings()

	require.NoError(t, repo.Create(ctx, entity.DefaultGlobalSettings(time.Now())))
	err := repo.Create(ctx, entity.DefaultGlobalSettings(time.Now()))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestStatusRepository_MissingIsConfigurationError(t *testing.T) {
	store := NewStore()
	store.RemoveStatus(valueobject.OrderStatusUnderReview)

	_, err := store.Statuses().GetByName(context.Background(), valueobject.OrderStatusUnderReview)
	assert.True(t, apperror.IsConfiguration(err))
}
