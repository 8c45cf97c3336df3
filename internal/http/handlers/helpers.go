package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/middleware"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
)

// currentActor извлекает актора из контекста и при его отсутствии отвечает 401.
func currentActor(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return entity.Actor{}, false
	}
	return actor, true
}

// parseUUIDParam разбирает UUID из параметра пути и при ошибке отвечает 400.
func parseUUIDParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "некорректный ID "+what)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает тело запроса и при ошибке отвечает 400.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// getPagination читает limit и offset с ограничениями.
func getPagination(c *gin.Context) (limit, offset int) {
	limit = parseIntQuery(c, "limit", 20)
	offset = parseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
