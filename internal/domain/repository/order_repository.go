package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// OrderChange - атомарное изменение заказа. Сохраняется в одной транзакции
// с проверкой версии: если заказ изменился после чтения, Save возвращает
// apperror.ErrConcurrentModification и ничего не пишет.
type OrderChange struct {
	Order           *entity.Order
	ExpectedVersion int64
	// History - запись журнала, если изменился статус.
	History *entity.StatusHistory
	// NewLivrable и UpdatedLivrable - результат работы, созданный или изменённый переходом.
	NewLivrable     *entity.Livrable
	UpdatedLivrable *entity.Livrable
}

type OrderRepository interface {
	// Create присваивает номер ORD-<год>-<NNNN> и сохраняет заказ вместе с первой записью журнала.
	Create(ctx context.Context, order *entity.Order, history *entity.StatusHistory) error
	Save(ctx context.Context, change OrderChange) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// GetWithDetails загружает заказ вместе с клиентом, исполнителем, услугой и результатами.
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*entity.Order, error)
	ListByCollaborator(ctx context.Context, collaboratorID uuid.UUID) ([]*entity.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, int, error)
	// ListDeadlineBetween возвращает незакрытые заказы со сроком в интервале.
	ListDeadlineBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error)
	// ListWithOutstandingPayment возвращает незакрытые и завершённые заказы с остатком к оплате.
	ListWithOutstandingPayment(ctx context.Context) ([]*entity.Order, error)
}

type OrderFilter struct {
	Status         valueobject.OrderStatus
	ClientID       *uuid.UUID
	CollaboratorID *uuid.UUID
	Limit          int
	Offset         int
}

type LivrableRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Livrable, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Livrable, error)
}

// HistoryRepository - только чтение: записи добавляются через OrderRepository.
type HistoryRepository interface {
	// ListByOrder возвращает журнал по убыванию времени.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.StatusHistory, error)
}

type StatusRepository interface {
	// GetByName возвращает ErrCodeConfiguration, если статус не заведён.
	GetByName(ctx context.Context, name valueobject.OrderStatus) (*entity.Status, error)
}
