package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/commission"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/event"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// EventPublisher получает события после фиксации изменения.
// Ошибки доставки не возвращаются: уведомления не откатывают переход.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event)
}

// SettingsProvider отдаёт актуальные глобальные настройки и переопределения услуг.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (*entity.GlobalSettings, error)
	GetServiceOverride(ctx context.Context, serviceID uuid.UUID) (*entity.ServiceCommissionOverride, error)
}

type Dependencies struct {
	Orders    repository.OrderRepository
	Livrables repository.LivrableRepository
	History   repository.HistoryRepository
	Statuses  repository.StatusRepository
	Users     repository.UserRepository
	Services  repository.ServiceRepository
	Settings  SettingsProvider
	Publisher EventPublisher
	Now       func() time.Time
}

// Result - заказ после перехода и выпущенные события.
type Result struct {
	Order  *entity.Order
	Events []event.Event
}

// lifecycle - общий цикл: загрузить, изменить, сохранить с проверкой версии, опубликовать.
type lifecycle struct {
	deps Dependencies
}

func newLifecycle(deps Dependencies) lifecycle {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return lifecycle{deps: deps}
}

func (l lifecycle) now() time.Time {
	return l.deps.Now().UTC()
}

func (l lifecycle) load(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := l.deps.Orders.GetWithDetails(ctx, orderID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить заказ")
	}
	return order, nil
}

// loadByLivrable находит заказ по идентификатору результата работы.
func (l lifecycle) loadByLivrable(ctx context.Context, livrableID uuid.UUID) (*entity.Order, error) {
	livrable, err := l.deps.Livrables.GetByID(ctx, livrableID)
	if err != nil {
		return nil, asAppError(err, "не удалось загрузить результат работы")
	}
	return l.load(ctx, livrable.OrderID)
}

// commitParams - что сохранить вместе с заказом.
type commitParams struct {
	order           *entity.Order
	expectedVersion int64
	events          []event.Event
	newLivrable     *entity.Livrable
	updatedLivrable *entity.Livrable
}

// commit сохраняет заказ одной транзакцией с записью журнала, если статус изменился.
func (l lifecycle) commit(ctx context.Context, p commitParams) error {
	history := historyFromEvents(p.events)
	if history != nil {
		if _, err := l.deps.Statuses.GetByName(ctx, history.Status); err != nil {
			return asAppError(err, "не удалось проверить справочник статусов")
		}
	}

	if hasEvent[event.OrderCompleted](p.events) {
		if err := commission.Finalize(p.order, l.now()); err != nil {
			return err
		}
	}

	err := l.deps.Orders.Save(ctx, repository.OrderChange{
		Order:           p.order,
		ExpectedVersion: p.expectedVersion,
		History:         history,
		NewLivrable:     p.newLivrable,
		UpdatedLivrable: p.updatedLivrable,
	})
	if err != nil {
		return asAppError(err, "не удалось сохранить заказ")
	}
	return nil
}

// commissionRules загружает текущие глобальные настройки и переопределение услуги.
func (l lifecycle) commissionRules(ctx context.Context, serviceID uuid.UUID) (*entity.GlobalSettings, *entity.ServiceCommissionOverride, error) {
	settings, err := l.deps.Settings.GetSettings(ctx)
	if err != nil {
		return nil, nil, asAppError(err, "не удалось загрузить глобальные настройки")
	}
	override, err := l.deps.Settings.GetServiceOverride(ctx, serviceID)
	if err != nil {
		return nil, nil, asAppError(err, "не удалось загрузить комиссию услуги")
	}
	return settings, override, nil
}

func (l lifecycle) publish(ctx context.Context, events []event.Event) {
	if len(events) == 0 || l.deps.Publisher == nil {
		return
	}
	l.deps.Publisher.Publish(ctx, events...)
}

// historyFromEvents строит единственную запись журнала по событию смены статуса.
func historyFromEvents(events []event.Event) *entity.StatusHistory {
	for _, e := range events {
		if changed, ok := e.(event.StatusChanged); ok {
			return entity.NewStatusHistory(changed.OrderID, changed.New, changed.ActorID, changed.Notes, changed.OccurredAt)
		}
	}
	return nil
}

func hasEvent[T event.Event](events []event.Event) bool {
	for _, e := range events {
		if _, ok := e.(T); ok {
			return true
		}
	}
	return false
}

// asAppError оставляет прикладные ошибки как есть, остальные считает ошибками БД.
func asAppError(err error, message string) error {
	if apperror.CodeOf(err) != "" {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// requireCollaborator проверяет, что пользователь - активный исполнитель.
func requireCollaborator(ctx context.Context, users repository.UserRepository, id uuid.UUID) error {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return asAppError(err, "не удалось загрузить исполнителя")
	}
	if !user.IsActive || user.Role != valueobject.RoleCollaborator {
		return apperror.Validation("пользователь не является активным исполнителем")
	}
	return nil
}
