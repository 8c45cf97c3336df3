package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/commission"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type CreateOrderInput struct {
	ClientID        uuid.UUID
	ServiceID       uuid.UUID
	CollaboratorID  *uuid.UUID
	DeadlineAt      time.Time
	TotalPrice      decimal.Decimal
	AdvancePayment  decimal.Decimal
	Discount        decimal.Decimal
	Quotation       string
	Comment         string
	CommissionType  valueobject.CommissionType
	CommissionValue *decimal.Decimal
	// PreValidatedQuote - заказ пришёл из публичного канала с подтверждённой котировкой.
	PreValidatedQuote bool
}

type CreateOrderUseCase struct {
	lifecycle
}

func NewCreateOrderUseCase(deps Dependencies) *CreateOrderUseCase {
	return &CreateOrderUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, actor entity.Actor, input CreateOrderInput) (*Result, error) {
	if err := uc.authorize(actor, &input); err != nil {
		return nil, err
	}

	service, err := uc.deps.Services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить услугу")
	}
	if !service.IsActive {
		return nil, apperror.Validation("услуга недоступна для заказа")
	}

	client, err := uc.deps.Users.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить клиента")
	}
	if client.Role != valueobject.RoleClient {
		return nil, apperror.Validation("заказ можно оформить только на клиента")
	}

	if input.CollaboratorID != nil {
		if err := requireCollaborator(ctx, uc.deps.Users, *input.CollaboratorID); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	order, err := entity.NewOrder(entity.NewOrderParams{
		ClientID:        input.ClientID,
		ServiceID:       input.ServiceID,
		CollaboratorID:  input.CollaboratorID,
		DeadlineAt:      input.DeadlineAt,
		TotalPrice:      input.TotalPrice,
		AdvancePayment:  input.AdvancePayment,
		Discount:        input.Discount,
		Quotation:       input.Quotation,
		Comment:         input.Comment,
		CommissionType:  input.CommissionType,
		CommissionValue: input.CommissionValue,
		PreValidated:    input.PreValidatedQuote,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	settings, override, err := uc.commissionRules(ctx, order.ServiceID)
	if err != nil {
		return nil, err
	}
	if _, err := commission.Apply(order, settings, override); err != nil {
		return nil, err
	}

	if _, err := uc.deps.Statuses.GetByName(ctx, order.Status); err != nil {
		return nil, asAppError(err, "не удалось проверить справочник статусов")
	}

	history := entity.NewStatusHistory(order.ID, order.Status, actor.Ref(), "Заказ создан", now)
	if err := uc.deps.Orders.Create(ctx, order, history); err != nil {
		return nil, asAppError(err, "не удалось создать заказ")
	}

	events := order.CreationEvents(actor)
	uc.publish(ctx, events)

	return &Result{Order: order, Events: events}, nil
}

// authorize: клиент оформляет заказ только на себя, исполнителя и комиссию задаёт только администратор.
func (uc *CreateOrderUseCase) authorize(actor entity.Actor, input *CreateOrderInput) error {
	switch {
	case actor.IsSystem(), actor.IsAdmin():
	case actor.IsClient():
		if input.ClientID == uuid.Nil {
			input.ClientID = actor.UserID
		}
		if input.ClientID != actor.UserID {
			return apperror.New(apperror.ErrCodeUnauthorizedTransition, "клиент может создавать заказы только для себя")
		}
		if input.CollaboratorID != nil {
			return apperror.New(apperror.ErrCodeUnauthorizedTransition, "назначать исполнителя может только администратор")
		}
		if input.CommissionValue != nil || input.CommissionType != "" {
			return apperror.New(apperror.ErrCodeUnauthorizedTransition, "комиссию заказа задаёт только администратор")
		}
	default:
		return apperror.New(apperror.ErrCodeUnauthorizedTransition, "недостаточно прав для создания заказа")
	}
	return nil
}
