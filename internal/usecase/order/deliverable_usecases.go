package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
)

type SubmitDeliverableInput struct {
	Name        string
	Description string
	FilePath    *string
}

// SubmitDeliverableUseCase добавляет результат работы и при необходимости
// переводит заказ на проверку с записью в журнал от имени исполнителя.
type SubmitDeliverableUseCase struct {
	lifecycle
}

func NewSubmitDeliverableUseCase(deps Dependencies) *SubmitDeliverableUseCase {
	return &SubmitDeliverableUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *SubmitDeliverableUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, input SubmitDeliverableInput) (*Result, *entity.Livrable, error) {
	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	version := order.Version
	livrable, events, err := order.SubmitLivrable(actor, input.Name, input.Description, input.FilePath, uc.now())
	if err != nil {
		return nil, nil, err
	}

	err = uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events, newLivrable: livrable})
	if err != nil {
		return nil, nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, livrable, nil
}

type ReviewDeliverableUseCase struct {
	lifecycle
}

func NewReviewDeliverableUseCase(deps Dependencies) *ReviewDeliverableUseCase {
	return &ReviewDeliverableUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *ReviewDeliverableUseCase) Execute(ctx context.Context, actor entity.Actor, livrableID uuid.UUID) (*Result, error) {
	order, err := uc.loadByLivrable(ctx, livrableID)
	if err != nil {
		return nil, err
	}

	version := order.Version
	livrable, events, err := order.ReviewLivrable(actor, livrableID, uc.now())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return &Result{Order: order}, nil
	}

	err = uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events, updatedLivrable: livrable})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}

// AcceptDeliverableUseCase принимает результат; приёмка последнего результата завершает заказ.
type AcceptDeliverableUseCase struct {
	lifecycle
}

func NewAcceptDeliverableUseCase(deps Dependencies) *AcceptDeliverableUseCase {
	return &AcceptDeliverableUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *AcceptDeliverableUseCase) Execute(ctx context.Context, actor entity.Actor, livrableID uuid.UUID) (*Result, error) {
	order, err := uc.loadByLivrable(ctx, livrableID)
	if err != nil {
		return nil, err
	}

	version := order.Version
	livrable, events, err := order.AcceptLivrable(actor, livrableID, uc.now())
	if err != nil {
		return nil, err
	}

	err = uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events, updatedLivrable: livrable})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}

// RejectDeliverableUseCase отклоняет результат, статус заказа остаётся прежним.
type RejectDeliverableUseCase struct {
	lifecycle
}

func NewRejectDeliverableUseCase(deps Dependencies) *RejectDeliverableUseCase {
	return &RejectDeliverableUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *RejectDeliverableUseCase) Execute(ctx context.Context, actor entity.Actor, livrableID uuid.UUID, reason string) (*Result, error) {
	order, err := uc.loadByLivrable(ctx, livrableID)
	if err != nil {
		return nil, err
	}

	version := order.Version
	livrable, events, err := order.RejectLivrable(actor, livrableID, reason, uc.now())
	if err != nil {
		return nil, err
	}

	err = uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events, updatedLivrable: livrable})
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}
