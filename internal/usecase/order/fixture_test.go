package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/infrastructure/memory"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
)

type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...event.Event) {
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) names() []string {
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Name())
	}
	return names
}

type storeSettings struct {
	repo *memory.SettingsRepository
}

func (s storeSettings) GetSettings(ctx context.Context) (*entity.GlobalSettings, error) {
	return s.repo.GetOrCreate(ctx, entity.DefaultGlobalSettings(time.Now()))
}

func (s storeSettings) GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error) {
	return s.repo.GetServiceOverride(ctx, serviceID)
}

// stepClock сдвигается на минуту при каждом обращении.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	store       *memory.Store
	deps        order.Dependencies
	pub         *recordingPublisher
	admin       entity.Actor
	client      entity.Actor
	collab      entity.Actor
	otherCollab entity.Actor
	serviceID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{store: store, pub: &recordingPublisher{}, serviceID: uuid.New()}
	f.admin = addUser(t, store, "admin", valueobject.RoleAdmin)
	f.client = addUser(t, store, "client", valueobject.RoleClient)
	f.collab = addUser(t, store, "collab", valueobject.RoleCollaborator)
	f.otherCollab = addUser(t, store, "collab2", valueobject.RoleCollaborator)
	store.AddService(&entity.Service{ID: f.serviceID, Name: "Logo design", IsActive: true})

	require.NoError(t, store.Settings().Create(ctx, &entity.GlobalSettings{
		CommissionType:                  valueobject.CommissionTypePercentage,
		CommissionValue:                 decimal.NewFromInt(20),
		IsCommissionEnabled:             true,
		CollaboratorCommissionType:      valueobject.CommissionTypePercentage,
		CollaboratorCommissionValue:     decimal.NewFromInt(60),
		IsCollaboratorCommissionEnabled: true,
	}))

	clock := &stepClock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	f.deps = order.Dependencies{
		Orders:    store.Orders(),
		Livrables: store.Livrables(),
		History:   store.History(),
		Statuses:  store.Statuses(),
		Users:     store.Users(),
		Services:  store.Services(),
		Settings:  storeSettings{repo: store.Settings()},
		Publisher: f.pub,
		Now:       clock.Now,
	}
	return f
}

func addUser(t *testing.T, store *memory.Store, name string, role valueobject.Role) entity.Actor {
	t.Helper()
	u := &entity.User{
		ID:       uuid.New(),
		Username: name,
		Email:    name + "@example.com",
		Phone:    "0612345678",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return entity.NewActor(u.ID, role)
}

func (f *fixture) createOrder(t *testing.T, total string) *entity.Order {
	t.Helper()
	collab := f.collab.UserID
	res, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.admin, order.CreateOrderInput{
		ClientID:       f.client.UserID,
		ServiceID:      f.serviceID,
		CollaboratorID: &collab,
		DeadlineAt:     time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalPrice:     decimal.RequireFromString(total),
	})
	require.NoError(t, err)
	return res.Order
}

// advance проводит заказ по цепочке статусов от имени администратора.
func (f *fixture) advance(t *testing.T, orderID uuid.UUID, statuses ...valueobject.OrderStatus) {
	t.Helper()
	uc := order.NewUpdateStatusUseCase(f.deps)
	for _, s := range statuses {
		_, err := uc.Execute(context.Background(), f.admin, orderID, s, "")
		require.NoError(t, err)
	}
}

func (f *fixture) historyLen(t *testing.T, orderID uuid.UUID) int {
	t.Helper()
	h, err := f.store.History().ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return len(h)
}
