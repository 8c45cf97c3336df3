package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/commission"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// UpdateStatusUseCase выполняет переход по таблице статусов, включая отмену.
type UpdateStatusUseCase struct {
	lifecycle
}

func NewUpdateStatusUseCase(deps Dependencies) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{lifecycle: newLifecycle(deps)}
}

// Execute: для отмены notes - обязательная причина.
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, target valueobject.OrderStatus, notes string) (*Result, error) {
	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	version := order.Version
	events, err := order.ChangeStatus(actor, target, notes, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events}); err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}

// CancelOrderUseCase - отмена с обязательной причиной.
type CancelOrderUseCase struct {
	status *UpdateStatusUseCase
}

func NewCancelOrderUseCase(deps Dependencies) *CancelOrderUseCase {
	return &CancelOrderUseCase{status: NewUpdateStatusUseCase(deps)}
}

func (uc *CancelOrderUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, reason string) (*Result, error) {
	if reason == "" {
		return nil, apperror.Validation("причина отмены обязательна")
	}
	return uc.status.Execute(ctx, actor, orderID, valueobject.OrderStatusCancelled, reason)
}

type AssignCollaboratorUseCase struct {
	lifecycle
}

func NewAssignCollaboratorUseCase(deps Dependencies) *AssignCollaboratorUseCase {
	return &AssignCollaboratorUseCase{lifecycle: newLifecycle(deps)}
}

// Execute назначает исполнителя; nil снимает назначение.
// Повторное назначение того же исполнителя ничего не сохраняет и не уведомляет.
func (uc *AssignCollaboratorUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, collaboratorID *uuid.UUID) (*Result, error) {
	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if collaboratorID != nil {
		if err := requireCollaborator(ctx, uc.deps.Users, *collaboratorID); err != nil {
			return nil, err
		}
	}

	version := order.Version
	events, err := order.AssignCollaborator(actor, collaboratorID, uc.now())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &Result{Order: order}, nil
	}
	if err := uc.reapplyPayout(ctx, order); err != nil {
		return nil, err
	}

	if err := uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events}); err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}

// reapplyPayout пересчитывает выплату исполнителю по текущим правилам, пока заказ открыт.
func (uc *AssignCollaboratorUseCase) reapplyPayout(ctx context.Context, order *entity.Order) error {
	settings, override, err := uc.commissionRules(ctx, order.ServiceID)
	if err != nil {
		return err
	}
	_, err = commission.ApplyCollaborator(order, settings, override)
	return err
}

// ApplyCommissionUseCase пересчитывает комиссию заказа. Для незавершённого заказа
// правила берутся из текущих настроек, для завершённого - закреплённые.
// Повторный вызов без изменения входных данных ничего не меняет.
type ApplyCommissionUseCase struct {
	lifecycle
}

func NewApplyCommissionUseCase(deps Dependencies) *ApplyCommissionUseCase {
	return &ApplyCommissionUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *ApplyCommissionUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) (*Result, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, apperror.ErrForbidden
	}

	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	version := order.Version

	var changed bool
	if order.Status == valueobject.OrderStatusCompleted {
		changed, err = commission.Recompute(order)
	} else {
		changed, err = uc.applyCurrent(ctx, order)
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return &Result{Order: order}, nil
	}

	order.UpdatedAt = uc.now()
	if err := uc.commit(ctx, commitParams{order: order, expectedVersion: version}); err != nil {
		return nil, err
	}
	return &Result{Order: order}, nil
}

func (uc *ApplyCommissionUseCase) applyCurrent(ctx context.Context, order *entity.Order) (bool, error) {
	settings, override, err := uc.commissionRules(ctx, order.ServiceID)
	if err != nil {
		return false, err
	}
	return commission.Apply(order, settings, override)
}
