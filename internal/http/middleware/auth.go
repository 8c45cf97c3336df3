package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
	ContextActorKey  = "actor"
)

// TokenParser разбирает access токен в актора.
type TokenParser interface {
	ParseAccess(token string) (entity.Actor, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		actor, err := tokens.ParseAccess(raw)
		if err != nil || actor.IsSystem() {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, actor.UserID)
		c.Set(ContextRoleKey, string(actor.Role))
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из ролей.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "недостаточно прав")
		c.Abort()
	}
}

// CurrentActor возвращает актора, сохранённого AuthMiddleware.
func CurrentActor(c *gin.Context) (entity.Actor, bool) {
	raw, exists := c.Get(ContextActorKey)
	if !exists {
		return entity.Actor{}, false
	}
	actor, ok := raw.(entity.Actor)
	if !ok || actor.IsSystem() {
		return entity.Actor{}, false
	}
	return actor, true
}
