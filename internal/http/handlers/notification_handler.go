package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
)

// NotificationHandler обслуживает маршруты уведомлений.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler создаёт новый хэндлер.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications обрабатывает GET /api/notifications.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	limit, offset := getPagination(c)
	unreadOnly := c.Query("unread_only") == "true"

	items, err := h.notifications.ListNotifications(c.Request.Context(), actor.UserID, limit, offset, unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToNotificationResponses(items))
}

// CountUnread обрабатывает GET /api/notifications/unread-count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.UnreadCountResponse{Count: count})
}

// MarkAsRead обрабатывает PUT /api/notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "уведомления")
	if !ok {
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, actor.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// MarkAllAsRead обрабатывает PUT /api/notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), actor.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
