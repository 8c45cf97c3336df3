package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
)

// SettingsHandler управляет глобальными комиссиями и переопределениями по услугам.
type SettingsHandler struct {
	settings *service.SettingsService
}

func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get обрабатывает GET /api/admin/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSettingsResponse(settings))
}

// Create обрабатывает POST /api/admin/settings.
func (h *SettingsHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.SettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	settings, err := h.settings.CreateSettings(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToSettingsResponse(settings))
}

// Update обрабатывает PUT /api/admin/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.SettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	settings, err := h.settings.UpdateSettings(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSettingsResponse(settings))
}

// SetServiceCommission обрабатывает PUT /api/admin/services/:id/commission.
func (h *SettingsHandler) SetServiceCommission(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	serviceID, ok := parseUUIDParam(c, "id", "услуги")
	if !ok {
		return
	}

	var req dto.ServiceCommissionRequest
	if !bindJSON(c, &req) {
		return
	}
	input, err := req.ToInput()
	if err != nil {
		response.Error(c, err)
		return
	}

	override, err := h.settings.SetServiceOverride(c.Request.Context(), actor, serviceID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToServiceCommissionResponse(override))
}

// DeleteServiceCommission обрабатывает DELETE /api/admin/services/:id/commission.
func (h *SettingsHandler) DeleteServiceCommission(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	serviceID, ok := parseUUIDParam(c, "id", "услуги")
	if !ok {
		return
	}

	if err := h.settings.DeleteServiceOverride(c.Request.Context(), actor, serviceID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
