package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
)

// ClientRegistry находит или заводит клиента по контактам из заявки.
type ClientRegistry interface {
	EnsureClient(ctx context.Context, in service.ClientContact) (*entity.User, error)
}

// ServiceCatalog отдаёт каталог услуг.
type ServiceCatalog interface {
	List(ctx context.Context, activeOnly bool) ([]*entity.Service, error)
}

// IntakeHandler принимает заказы из публичного канала, где котировка уже
// согласована с клиентом. Заказ создаётся от имени системы сразу в confirmed.
type IntakeHandler struct {
	orders   *order.UseCases
	clients  ClientRegistry
	services ServiceCatalog
}

func NewIntakeHandler(orders *order.UseCases, clients ClientRegistry, services ServiceCatalog) *IntakeHandler {
	return &IntakeHandler{orders: orders, clients: clients, services: services}
}

// CreatePublicOrder обрабатывает POST /api/public/orders.
func (h *IntakeHandler) CreatePublicOrder(c *gin.Context) {
	var req dto.PublicOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		response.BadRequest(c, "некорректный ID услуги")
		return
	}
	deadline, err := dto.ParseDeadline(req.DeadlineAt)
	if err != nil {
		response.Error(c, err)
		return
	}

	client, err := h.clients.EnsureClient(c.Request.Context(), service.ClientContact{
		Username: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.orders.Create.Execute(c.Request.Context(), entity.SystemActor(), order.CreateOrderInput{
		ClientID:          client.ID,
		ServiceID:         serviceID,
		DeadlineAt:        deadline,
		TotalPrice:        req.TotalPrice,
		Quotation:         req.Quotation,
		Comment:           req.Comment,
		PreValidatedQuote: true,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"order_number": res.Order.OrderNumber,
		"status":       string(res.Order.Status),
		"deadline_at":  res.Order.DeadlineAt,
	})
}

// ListServices обрабатывает GET /api/public/services.
func (h *IntakeHandler) ListServices(c *gin.Context) {
	services, err := h.services.List(c.Request.Context(), true)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]*dto.ServiceSummary, 0, len(services))
	for _, s := range services {
		out = append(out, dto.ToServiceSummary(s))
	}
	response.Success(c, out)
}
