package order_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
)

func TestCreateOrder_AppliesCommission(t *testing.T) {
	f := newFixture(t)

	o := f.createOrder(t, "1000")

	assert.Equal(t, valueobject.OrderStatusPending, o.Status)
	assert.Equal(t, "ORD-2026-0001", o.OrderNumber)
	assert.True(t, decimal.NewFromInt(200).Equal(o.Commission.Amount), o.Commission.Amount.String())
	assert.True(t, decimal.NewFromInt(600).Equal(o.CollaboratorCommission.Amount))
	assert.Equal(t, 1, f.historyLen(t, o.ID))
	assert.Equal(t, []string{"order_created", "collaborator_assigned"}, f.pub.names())
}

func TestCreateOrder_ServiceOverrideWins(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Settings().UpsertServiceOverride(context.Background(), &entity.ServiceCommissionOverride{
		ServiceID:       f.serviceID,
		CommissionType:  valueobject.CommissionTypeFixed,
		CommissionValue: decimal.NewFromInt(100),
		IsActive:        true,
	}))

	o := f.createOrder(t, "1000")

	assert.True(t, decimal.NewFromInt(100).Equal(o.CollaboratorCommission.Amount))
	assert.True(t, decimal.NewFromInt(200).Equal(o.Commission.Amount))
}

func TestCreateOrder_ZeroPriceRejectedBeforePersist(t *testing.T) {
	f := newFixture(t)

	_, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.admin, order.CreateOrderInput{
		ClientID:   f.client.UserID,
		ServiceID:  f.serviceID,
		DeadlineAt: f.deps.Now(),
		TotalPrice: decimal.Zero,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	_, total, err := f.store.Orders().List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.pub.events)
}

func TestCreateOrder_PreValidatedQuoteStartsConfirmed(t *testing.T) {
	f := newFixture(t)

	res, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.client, order.CreateOrderInput{
		ServiceID:         f.serviceID,
		DeadlineAt:        f.deps.Now().AddDate(0, 1, 0),
		TotalPrice:        decimal.NewFromInt(500),
		PreValidatedQuote: true,
	})

	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusConfirmed, res.Order.Status)
	assert.Equal(t, f.client.UserID, res.Order.ClientID)
}

func TestCreateOrder_ClientCannotOrderForSomeoneElse(t *testing.T) {
	f := newFixture(t)
	other := addUser(t, f.store, "other", valueobject.RoleClient)

	_, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.client, order.CreateOrderInput{
		ClientID:   other.UserID,
		ServiceID:  f.serviceID,
		DeadlineAt: f.deps.Now().AddDate(0, 1, 0),
		TotalPrice: decimal.NewFromInt(500),
	})

	assert.True(t, apperror.IsUnauthorizedTransition(err))
}

func TestCreateOrder_ClientCannotPinCommission(t *testing.T) {
	f := newFixture(t)
	zero := decimal.Zero

	_, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.client, order.CreateOrderInput{
		ServiceID:       f.serviceID,
		DeadlineAt:      f.deps.Now().AddDate(0, 1, 0),
		TotalPrice:      decimal.NewFromInt(1000),
		CommissionType:  valueobject.CommissionTypeFixed,
		CommissionValue: &zero,
	})

	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorizedTransition(err))
	_, total, err := f.store.Orders().List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateOrder_ClientGetsGlobalCommission(t *testing.T) {
	f := newFixture(t)

	res, err := order.NewCreateOrderUseCase(f.deps).Execute(context.Background(), f.client, order.CreateOrderInput{
		ServiceID:  f.serviceID,
		DeadlineAt: f.deps.Now().AddDate(0, 1, 0),
		TotalPrice: decimal.NewFromInt(1000),
	})

	require.NoError(t, err)
	assert.False(t, res.Order.CommissionExplicit)
	assert.True(t, decimal.NewFromInt(200).Equal(res.Order.Commission.Amount), res.Order.Commission.Amount.String())
}

func TestSubmitDeliverable_MovesToReviewWithCollaboratorHistory(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)
	before := f.historyLen(t, o.ID)

	res, l, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(context.Background(), f.collab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})

	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusUnderReview, res.Order.Status)
	assert.Equal(t, o.ID, l.OrderID)

	history, err := f.store.History().ListByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, history, before+1)
	assert.Equal(t, valueobject.OrderStatusUnderReview, history[0].Status)
	require.NotNil(t, history[0].ActorID)
	assert.Equal(t, f.collab.UserID, *history[0].ActorID)
}

func TestGetDeliverable_FollowsOrderVisibility(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)
	_, l, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(context.Background(), f.collab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})
	require.NoError(t, err)

	uc := order.NewGetDeliverableUseCase(f.deps)
	for _, actor := range []entity.Actor{f.client, f.collab, f.admin} {
		got, err := uc.Execute(context.Background(), actor, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
	}

	stranger := addUser(t, f.store, "stranger", valueobject.RoleClient)
	_, err = uc.Execute(context.Background(), stranger, l.ID)
	assert.True(t, apperror.IsForbidden(err))
	_, err = uc.Execute(context.Background(), f.otherCollab, l.ID)
	assert.True(t, apperror.IsForbidden(err))

	_, err = uc.Execute(context.Background(), f.admin, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestSubmitDeliverable_UnassignedCollaboratorRejected(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)
	before := f.historyLen(t, o.ID)

	_, _, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(context.Background(), f.otherCollab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})

	assert.True(t, apperror.IsUnauthorizedTransition(err))
	stored, err := f.store.Orders().GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInProgress, stored.Status)
	assert.Equal(t, before, f.historyLen(t, o.ID))
}

func TestDeliverables_AcceptLastCompletesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)

	_, l, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(ctx, f.collab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})
	require.NoError(t, err)
	_, err = order.NewReviewDeliverableUseCase(f.deps).Execute(ctx, f.admin, l.ID)
	require.NoError(t, err)

	res, err := order.NewAcceptDeliverableUseCase(f.deps).Execute(ctx, f.client, l.ID)
	require.NoError(t, err)

	assert.Equal(t, valueobject.OrderStatusCompleted, res.Order.Status)
	require.NotNil(t, res.Order.CompletedAt)
	require.NotNil(t, res.Order.CommissionFinalizedAt)
	assert.True(t, decimal.NewFromInt(200).Equal(res.Order.Commission.Amount))

	stored, err := f.store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CommissionFinalizedAt)
}

func TestDeliverables_RejectKeepsUnderReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)

	_, l, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(ctx, f.collab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})
	require.NoError(t, err)
	before := f.historyLen(t, o.ID)

	res, err := order.NewRejectDeliverableUseCase(f.deps).Execute(ctx, f.client, l.ID, "цвета не те")
	require.NoError(t, err)

	assert.Equal(t, valueobject.OrderStatusUnderReview, res.Order.Status)
	assert.Equal(t, before, f.historyLen(t, o.ID))

	stored, err := f.store.Livrables().GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsAccepted)
	assert.Equal(t, "цвета не те", stored.RejectionReason)
}

func TestAcceptDeliverable_RequiresAdminReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)

	_, l, err := order.NewSubmitDeliverableUseCase(f.deps).Execute(ctx, f.collab, o.ID, order.SubmitDeliverableInput{Name: "Logo v1"})
	require.NoError(t, err)

	_, err = order.NewAcceptDeliverableUseCase(f.deps).Execute(ctx, f.client, l.ID)
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateStatus_MissingStatusIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.store.RemoveStatus(valueobject.OrderStatusConfirmed)

	_, err := order.NewUpdateStatusUseCase(f.deps).Execute(context.Background(), f.admin, o.ID, valueobject.OrderStatusConfirmed, "")

	assert.True(t, apperror.IsConfiguration(err))
	stored, err := f.store.Orders().GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusPending, stored.Status)
	assert.Equal(t, 1, f.historyLen(t, o.ID))
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")

	_, err := order.NewUpdateStatusUseCase(f.deps).Execute(context.Background(), f.admin, o.ID, valueobject.OrderStatusCompleted, "")

	assert.True(t, apperror.IsValidation(err))
}

func TestCancelOrder_RequiresReason(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")

	_, err := order.NewCancelOrderUseCase(f.deps).Execute(context.Background(), f.client, o.ID, "")
	assert.True(t, apperror.IsValidation(err))

	res, err := order.NewCancelOrderUseCase(f.deps).Execute(context.Background(), f.client, o.ID, "передумал")
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCancelled, res.Order.Status)
}

// racingOrders подменяет чтение: сразу после загрузки заказа выполняет
// конкурирующее изменение, так что прочитанная версия устаревает.
type racingOrders struct {
	repository.OrderRepository
	race func()
}

func (r *racingOrders) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	o, err := r.OrderRepository.GetWithDetails(ctx, id)
	if r.race != nil {
		race := r.race
		r.race = nil
		race()
	}
	return o, err
}

func TestUpdateStatus_StaleVersionIsConcurrentModification(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")

	racing := &racingOrders{OrderRepository: f.store.Orders()}
	racing.race = func() {
		f.advance(t, o.ID, valueobject.OrderStatusConfirmed)
	}
	deps := f.deps
	deps.Orders = racing

	_, err := order.NewCancelOrderUseCase(deps).Execute(context.Background(), f.admin, o.ID, "дубль")

	assert.True(t, apperror.IsConcurrentModification(err))
	stored, err := f.store.Orders().GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusConfirmed, stored.Status)
	assert.Equal(t, 2, f.historyLen(t, o.ID))
}

func TestAssignCollaborator_NoOpEmitsNothing(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.pub.events = nil
	uc := order.NewAssignCollaboratorUseCase(f.deps)

	same := f.collab.UserID
	res, err := uc.Execute(context.Background(), f.admin, o.ID, &same)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Empty(t, f.pub.events)

	other := f.otherCollab.UserID
	res, err = uc.Execute(context.Background(), f.admin, o.ID, &other)
	require.NoError(t, err)
	assert.Equal(t, []string{"collaborator_assigned"}, f.pub.names())
	assert.True(t, res.Order.IsAssignedTo(other))
	assert.Equal(t, 1, f.historyLen(t, o.ID))
}

func TestAssignCollaborator_ReappliesPayoutFromCurrentRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, "1000")
	require.True(t, decimal.NewFromInt(600).Equal(o.CollaboratorCommission.Amount))

	require.NoError(t, f.store.Settings().UpsertServiceOverride(ctx, &entity.ServiceCommissionOverride{
		ServiceID:       f.serviceID,
		CommissionType:  valueobject.CommissionTypeFixed,
		CommissionValue: decimal.NewFromInt(100),
		IsActive:        true,
	}))

	other := f.otherCollab.UserID
	res, err := order.NewAssignCollaboratorUseCase(f.deps).Execute(ctx, f.admin, o.ID, &other)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(res.Order.CollaboratorCommission.Amount), res.Order.CollaboratorCommission.Amount.String())
	assert.True(t, decimal.NewFromInt(200).Equal(res.Order.Commission.Amount))
	stored, err := f.store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(stored.CollaboratorCommission.Amount))
}

func TestAssignCollaborator_RejectsNonCollaborator(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	client := f.client.UserID

	_, err := order.NewAssignCollaboratorUseCase(f.deps).Execute(context.Background(), f.admin, o.ID, &client)

	assert.True(t, apperror.IsValidation(err))
}

func TestApplyCommission_Idempotent(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	uc := order.NewApplyCommissionUseCase(f.deps)

	_, err := uc.Execute(context.Background(), f.admin, o.ID)
	require.NoError(t, err)
	first, err := f.store.Orders().GetByID(context.Background(), o.ID)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), f.admin, o.ID)
	require.NoError(t, err)
	second, err := f.store.Orders().GetByID(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Version, second.Version)
	assert.True(t, first.Commission.Amount.Equal(second.Commission.Amount))
}

func TestUpdateOrderDetails_RecomputesWithPinnedRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.createOrder(t, "1000")

	settings, err := f.store.Settings().Get(ctx)
	require.NoError(t, err)
	settings.CommissionValue = decimal.NewFromInt(50)
	require.NoError(t, f.store.Settings().Update(ctx, settings))

	price := decimal.NewFromInt(2000)
	res, err := order.NewUpdateOrderDetailsUseCase(f.deps).Execute(ctx, f.admin, o.ID, order.UpdateOrderDetailsInput{TotalPrice: &price})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(400).Equal(res.Order.Commission.Amount), res.Order.Commission.Amount.String())
	assert.True(t, decimal.NewFromInt(1200).Equal(res.Order.CollaboratorCommission.Amount))
	assert.Equal(t, 1, f.historyLen(t, o.ID))
}

func TestUpdateOrderDetails_BlacklistRequiresReason(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")

	_, err := order.NewUpdateOrderDetailsUseCase(f.deps).Execute(context.Background(), f.admin, o.ID, order.UpdateOrderDetailsInput{
		Blacklist: &order.BlacklistInput{Flag: true},
	})
	assert.True(t, apperror.IsValidation(err))

	res, err := order.NewUpdateOrderDetailsUseCase(f.deps).Execute(context.Background(), f.admin, o.ID, order.UpdateOrderDetailsInput{
		Blacklist: &order.BlacklistInput{Flag: true, Reason: "неоплата"},
	})
	require.NoError(t, err)
	assert.True(t, res.Order.IsBlacklisted)
	assert.Contains(t, f.pub.names(), "client_blacklisted")
}

func TestGetHistory_NewestFirstAndForbiddenForStrangers(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, "1000")
	f.advance(t, o.ID, valueobject.OrderStatusConfirmed, valueobject.OrderStatusInProgress)
	uc := order.NewGetHistoryUseCase(f.deps)

	history, err := uc.Execute(context.Background(), f.client, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, valueobject.OrderStatusInProgress, history[0].Status)
	assert.Equal(t, valueobject.OrderStatusPending, history[2].Status)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.After(history[i-1].CreatedAt))
	}

	_, err = uc.Execute(context.Background(), f.otherCollab, o.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestListOrders_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t, "1000")
	f.createOrder(t, "500")
	uc := order.NewListOrdersUseCase(f.deps)

	orders, total, err := uc.Execute(context.Background(), f.collab, repository.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, orders, 2)

	orders, total, err = uc.Execute(context.Background(), f.otherCollab, repository.OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)

	orders, _, err = uc.Execute(context.Background(), f.admin, repository.OrderFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}
