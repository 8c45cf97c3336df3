package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

// StatusHistory - неизменяемая запись журнала статусов.
// ActorID == nil - изменение выполнено системой.
type StatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Status    valueobject.OrderStatus
	ActorID   *uuid.UUID
	Notes     string
	CreatedAt time.Time
}

func NewStatusHistory(orderID uuid.UUID, status valueobject.OrderStatus, actorID *uuid.UUID, notes string, at time.Time) *StatusHistory {
	return &StatusHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		Status:    status,
		ActorID:   actorID,
		Notes:     notes,
		CreatedAt: at,
	}
}

// Status - справочная запись статуса. Должна существовать до первого перехода в неё.
type Status struct {
	ID   int64
	Name valueobject.OrderStatus
}
