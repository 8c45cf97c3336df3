package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
)

// OrderHandler обслуживает маршруты заказов.
type OrderHandler struct {
	orders *order.UseCases
}

func NewOrderHandler(orders *order.UseCases) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder обрабатывает POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		response.BadRequest(c, "некорректный ID услуги")
		return
	}
	var clientID uuid.UUID
	if req.ClientID != "" {
		if clientID, err = uuid.Parse(req.ClientID); err != nil {
			response.BadRequest(c, "некорректный ID клиента")
			return
		}
	}
	collaboratorID, err := dto.ParseOptionalUUID(req.CollaboratorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	deadline, err := dto.ParseDeadline(req.DeadlineAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	commissionType, err := dto.ParseCommissionType(req.CommissionType)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.orders.Create.Execute(c.Request.Context(), actor, order.CreateOrderInput{
		ClientID:        clientID,
		ServiceID:       serviceID,
		CollaboratorID:  collaboratorID,
		DeadlineAt:      deadline,
		TotalPrice:      req.TotalPrice,
		AdvancePayment:  req.AdvancePayment,
		Discount:        req.Discount,
		Quotation:       req.Quotation,
		Comment:         req.Comment,
		CommissionType:  commissionType,
		CommissionValue: req.CommissionValue,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToOrderResponse(res.Order))
}

// ListOrders обрабатывает GET /api/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	limit, offset := getPagination(c)
	filter := repository.OrderFilter{Limit: limit, Offset: offset}

	if raw := c.Query("status"); raw != "" {
		status, err := valueobject.NewOrderStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = status
	}
	for key, target := range map[string]**uuid.UUID{
		"client_id":       &filter.ClientID,
		"collaborator_id": &filter.CollaboratorID,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "некорректный параметр "+key)
			return
		}
		*target = &id
	}

	orders, total, err := h.orders.List.Execute(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToOrderResponses(orders), total, limit, offset)
}

// GetOrder обрабатывает GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	o, err := h.orders.Get.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(o))
}

// UpdateOrder обрабатывает PATCH /api/orders/:id.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	input := order.UpdateOrderDetailsInput{
		TotalPrice:      req.TotalPrice,
		AdvancePayment:  req.AdvancePayment,
		Discount:        req.Discount,
		Quotation:       req.Quotation,
		Comment:         req.Comment,
		CommissionValue: req.CommissionValue,
	}
	if req.DeadlineAt != nil {
		deadline, err := dto.ParseDeadline(*req.DeadlineAt)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.DeadlineAt = &deadline
	}
	commissionType, err := dto.ParseCommissionType(req.CommissionType)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.CommissionType = commissionType
	if req.Blacklist != nil {
		input.Blacklist = &order.BlacklistInput{Flag: req.Blacklist.Flag, Reason: req.Blacklist.Reason}
	}

	res, err := h.orders.UpdateDetails.Execute(c.Request.Context(), actor, orderID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}

// UpdateStatus обрабатывает PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := valueobject.NewOrderStatus(req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.orders.UpdateStatus.Execute(c.Request.Context(), actor, orderID, target, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}

// CancelOrder обрабатывает POST /api/orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	var req dto.CancelOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.orders.Cancel.Execute(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}

// AssignCollaborator обрабатывает PUT /api/orders/:id/collaborator.
func (h *OrderHandler) AssignCollaborator(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	var req dto.AssignCollaboratorRequest
	if !bindJSON(c, &req) {
		return
	}
	collaboratorID, err := dto.ParseOptionalUUID(req.CollaboratorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.orders.AssignCollaborator.Execute(c.Request.Context(), actor, orderID, collaboratorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}

// ApplyCommission обрабатывает POST /api/orders/:id/commission.
func (h *OrderHandler) ApplyCommission(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	res, err := h.orders.ApplyCommission.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}

// GetHistory обрабатывает GET /api/orders/:id/history.
func (h *OrderHandler) GetHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	history, err := h.orders.History.Execute(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToHistoryResponses(history))
}
