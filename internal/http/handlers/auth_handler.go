package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
)

// UserManager - операции над аккаунтами, доступные через API.
type UserManager interface {
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	CreateCollaborator(ctx context.Context, actor entity.Actor, in service.CreateCollaboratorInput) (*entity.User, error)
	Deactivate(ctx context.Context, actor entity.Actor, userID uuid.UUID) error
}

// UserHandler обслуживает вход и управление аккаунтами.
type UserHandler struct {
	users UserManager
}

func NewUserHandler(users UserManager) *UserHandler {
	return &UserHandler{users: users}
}

// Login обрабатывает POST /api/auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.users.Login(c.Request.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToLoginResponse(res))
}

// CreateCollaborator обрабатывает POST /api/admin/collaborators.
func (h *UserHandler) CreateCollaborator(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateCollaboratorRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.CreateCollaborator(c.Request.Context(), actor, service.CreateCollaboratorInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToUserSummary(user))
}

// Deactivate обрабатывает PUT /api/admin/users/:id/deactivate.
func (h *UserHandler) Deactivate(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	userID, ok := parseUUIDParam(c, "id", "пользователя")
	if !ok {
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), actor, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
