package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
)

type NotificationResponse struct {
	ID         uuid.UUID  `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Priority   string     `json:"priority"`
	IsRead     bool       `json:"is_read"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	LivrableID *uuid.UUID `json:"livrable_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func ToNotificationResponses(items []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:         n.ID,
			Type:       string(n.Type),
			Title:      n.Title,
			Message:    n.Message,
			Priority:   string(n.Priority),
			IsRead:     n.IsRead,
			OrderID:    n.OrderID,
			LivrableID: n.LivrableID,
			CreatedAt:  n.CreatedAt,
		})
	}
	return out
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
