// Package event содержит доменные события жизненного цикла заказа.
// События возвращаются методами сущностей и передаются диспетчеру уведомлений
// после фиксации изменений.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// Event - общий интерфейс доменных событий.
type Event interface {
	Name() string
	Meta() Base
}

// Base - общие поля всех событий. ActorID == nil означает системное действие.
type Base struct {
	OrderID    uuid.UUID
	ActorID    *uuid.UUID
	OccurredAt time.Time
}

func (b Base) Meta() Base { return b }

// NewBase заполняет общие поля события.
func NewBase(orderID uuid.UUID, actorID *uuid.UUID, at time.Time) Base {
	return Base{OrderID: orderID, ActorID: actorID, OccurredAt: at}
}

// IsActor проверяет, что пользователь инициировал событие.
func (b Base) IsActor(userID uuid.UUID) bool {
	return b.ActorID != nil && *b.ActorID == userID
}

type OrderCreated struct {
	Base
	Status valueobject.OrderStatus
}

func (OrderCreated) Name() string { return "order_created" }

type StatusChanged struct {
	Base
	Old   valueobject.OrderStatus
	New   valueobject.OrderStatus
	Notes string
}

func (StatusChanged) Name() string { return "status_changed" }

type CollaboratorAssigned struct {
	Base
	Old *uuid.UUID
	New *uuid.UUID
}

func (CollaboratorAssigned) Name() string { return "collaborator_assigned" }

type DeliverableUploaded struct {
	Base
	LivrableID uuid.UUID
	Title      string
}

func (DeliverableUploaded) Name() string { return "deliverable_uploaded" }

type DeliverableReviewed struct {
	Base
	LivrableID uuid.UUID
	Title      string
}

func (DeliverableReviewed) Name() string { return "deliverable_reviewed" }

type DeliverableAccepted struct {
	Base
	LivrableID uuid.UUID
	Title      string
}

func (DeliverableAccepted) Name() string { return "deliverable_accepted" }

type DeliverableRejected struct {
	Base
	LivrableID uuid.UUID
	Title      string
	Reason     string
}

func (DeliverableRejected) Name() string { return "deliverable_rejected" }

type OrderCancelled struct {
	Base
	Previous valueobject.OrderStatus
	Reason   string
}

func (OrderCancelled) Name() string { return "order_cancelled" }

// OrderCompleted публикуется вместе со StatusChanged при переходе в completed.
type OrderCompleted struct {
	Base
}

func (OrderCompleted) Name() string { return "order_completed" }

type ClientBlacklisted struct {
	Base
	ClientID uuid.UUID
	Reason   string
}

func (ClientBlacklisted) Name() string { return "client_blacklisted" }

// AccountCreated не привязан к заказу: OrderID равен uuid.Nil.
type AccountCreated struct {
	Base
	UserID uuid.UUID
	Role   valueobject.Role
}

func (AccountCreated) Name() string { return "account_created" }

// DeadlineApproaching и PaymentDue выпускаются планировщиком напоминаний.
type DeadlineApproaching struct {
	Base
	DeadlineAt time.Time
}

func (DeadlineApproaching) Name() string { return "deadline_approaching" }

type PaymentDue struct {
	Base
	Remaining string
}

func (PaymentDue) Name() string { return "payment_due" }
