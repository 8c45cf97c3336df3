package ws

import (
	"context"
	"time"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
)

// NotificationEvent - тип сообщения с новым уведомлением.
const NotificationEvent = "notification"

// NotificationPusher отправляет сохранённые уведомления через хаб.
type NotificationPusher struct {
	hub *Hub
}

func NewNotificationPusher(hub *Hub) *NotificationPusher {
	return &NotificationPusher{hub: hub}
}

type notificationPayload struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Priority   string  `json:"priority"`
	OrderID    *string `json:"order_id,omitempty"`
	LivrableID *string `json:"livrable_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// Push отправляет уведомление получателю, если он подключён.
func (p *NotificationPusher) Push(ctx context.Context, n *entity.Notification) error {
	payload := notificationPayload{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
	if n.OrderID != nil {
		s := n.OrderID.String()
		payload.OrderID = &s
	}
	if n.LivrableID != nil {
		s := n.LivrableID.String()
		payload.LivrableID = &s
	}
	return p.hub.BroadcastToUser(n.RecipientID, NotificationEvent, payload)
}
