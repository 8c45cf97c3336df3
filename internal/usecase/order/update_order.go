package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/commission"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// UpdateOrderDetailsInput - частичное изменение заказа администратором. nil - не менять.
type UpdateOrderDetailsInput struct {
	TotalPrice      *decimal.Decimal
	AdvancePayment  *decimal.Decimal
	Discount        *decimal.Decimal
	DeadlineAt      *time.Time
	Quotation       *string
	Comment         *string
	CommissionType  valueobject.CommissionType
	CommissionValue *decimal.Decimal
	Blacklist       *BlacklistInput
}

type BlacklistInput struct {
	Flag   bool
	Reason string
}

type UpdateOrderDetailsUseCase struct {
	lifecycle
}

func NewUpdateOrderDetailsUseCase(deps Dependencies) *UpdateOrderDetailsUseCase {
	return &UpdateOrderDetailsUseCase{lifecycle: newLifecycle(deps)}
}

// Execute не меняет статус и не пишет журнал. Комиссия пересчитывается по
// закреплённым правилам, поэтому изменение глобальных настроек на неё не влияет.
func (uc *UpdateOrderDetailsUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID, input UpdateOrderDetailsInput) (*Result, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.ErrCodeUnauthorizedTransition, "изменять заказ может только администратор")
	}

	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == valueobject.OrderStatusCancelled {
		return nil, apperror.Validation("отменённый заказ нельзя изменить")
	}
	if order.Status == valueobject.OrderStatusCompleted && (input.TotalPrice != nil || input.CommissionValue != nil) {
		return nil, apperror.Validation("стоимость и комиссия завершённого заказа зафиксированы")
	}

	version := order.Version
	now := uc.now()

	err = order.UpdateFinancials(entity.FinancialsPatch{
		TotalPrice:     input.TotalPrice,
		AdvancePayment: input.AdvancePayment,
		Discount:       input.Discount,
	}, now)
	if err != nil {
		return nil, err
	}

	if input.CommissionValue != nil {
		if err := order.SetExplicitCommission(input.CommissionType, *input.CommissionValue); err != nil {
			return nil, err
		}
	}
	if _, err := commission.Recompute(order); err != nil {
		return nil, err
	}

	if input.DeadlineAt != nil {
		order.DeadlineAt = *input.DeadlineAt
	}
	if input.Quotation != nil {
		order.Quotation = *input.Quotation
	}
	if input.Comment != nil {
		order.Comment = *input.Comment
	}

	var events []event.Event
	if input.Blacklist != nil {
		events, err = order.SetBlacklist(actor, input.Blacklist.Flag, input.Blacklist.Reason, now)
		if err != nil {
			return nil, err
		}
	}
	order.UpdatedAt = now

	if err := uc.commit(ctx, commitParams{order: order, expectedVersion: version, events: events}); err != nil {
		return nil, err
	}
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}
