package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/middleware"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений для живых уведомлений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   middleware.TokenParser
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewWSHandler создаёт хэндлер. Пустой allowedOrigins разрешает любой origin.
func NewWSHandler(hub *ws.Hub, tokens middleware.TokenParser, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен")
		return
	}

	actor, err := h.tokens.ParseAccess(rawToken)
	if err != nil || actor.IsSystem() {
		response.Unauthorized(c, "невалидный access токен")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		h.log.WithError(err).Debug("ws upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.hub, actor.UserID)
	client.Run(c.Request.Context())
}
