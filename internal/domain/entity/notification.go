package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	Type        valueobject.NotificationType
	Title       string
	Message     string
	Priority    valueobject.NotificationPriority
	IsRead      bool
	IsEmailSent bool
	OrderID     *uuid.UUID
	LivrableID  *uuid.UUID
	CreatedAt   time.Time
}
