package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

type GetOrderUseCase struct {
	lifecycle
}

func NewGetOrderUseCase(deps Dependencies) *GetOrderUseCase {
	return &GetOrderUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) (*entity.Order, error) {
	order, err := uc.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeViewedBy(actor) {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}

// GetDeliverableUseCase отдаёт результат работы тому, кто видит его заказ.
type GetDeliverableUseCase struct {
	lifecycle
}

func NewGetDeliverableUseCase(deps Dependencies) *GetDeliverableUseCase {
	return &GetDeliverableUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *GetDeliverableUseCase) Execute(ctx context.Context, actor entity.Actor, livrableID uuid.UUID) (*entity.Livrable, error) {
	livrable, err := uc.deps.Livrables.GetByID(ctx, livrableID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить результат работы")
	}
	order, err := uc.deps.Orders.GetByID(ctx, livrable.OrderID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить заказ")
	}
	if !order.CanBeViewedBy(actor) {
		return nil, apperror.ErrForbidden
	}
	return livrable, nil
}

// GetHistoryUseCase отдаёт журнал статусов, новые записи первыми.
type GetHistoryUseCase struct {
	lifecycle
}

func NewGetHistoryUseCase(deps Dependencies) *GetHistoryUseCase {
	return &GetHistoryUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, actor entity.Actor, orderID uuid.UUID) ([]*entity.StatusHistory, error) {
	order, err := uc.deps.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить заказ")
	}
	if !order.CanBeViewedBy(actor) {
		return nil, apperror.ErrForbidden
	}

	history, err := uc.deps.History.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить журнал статусов")
	}
	return history, nil
}

// ListOrdersUseCase: клиент видит свои заказы, исполнитель - назначенные, администратор - все.
type ListOrdersUseCase struct {
	lifecycle
}

func NewListOrdersUseCase(deps Dependencies) *ListOrdersUseCase {
	return &ListOrdersUseCase{lifecycle: newLifecycle(deps)}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, actor entity.Actor, filter repository.OrderFilter) ([]*entity.Order, int, error) {
	var (
		orders []*entity.Order
		err    error
	)
	switch {
	case actor.IsAdmin():
		total := 0
		orders, total, err = uc.deps.Orders.List(ctx, filter)
		if err != nil {
			return nil, 0, asAppError(err, "не удалось получить список заказов")
		}
		return orders, total, nil
	case actor.IsClient():
		orders, err = uc.deps.Orders.ListByClient(ctx, actor.UserID)
	case actor.IsCollaborator():
		orders, err = uc.deps.Orders.ListByCollaborator(ctx, actor.UserID)
	default:
		return nil, 0, apperror.ErrForbidden
	}
	if err != nil {
		return nil, 0, asAppError(err, "не удалось получить список заказов")
	}

	filtered := make([]*entity.Order, 0, len(orders))
	for _, o := range orders {
		if filter.Status == "" || o.Status == filter.Status {
			filtered = append(filtered, o)
		}
	}
	return paginate(filtered, filter.Limit, filter.Offset), len(filtered), nil
}

func paginate(orders []*entity.Order, limit, offset int) []*entity.Order {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(orders) {
		return []*entity.Order{}
	}
	orders = orders[offset:]
	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders
}
