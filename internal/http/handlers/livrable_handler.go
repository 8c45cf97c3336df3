package handlers

import (
	"context"
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/dto"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/response"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/storage"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
)

// FileStore сохраняет файлы результатов работы.
type FileStore interface {
	Save(ctx context.Context, orderID uuid.UUID, originalName string, r io.Reader) (*storage.StoredFile, error)
	Delete(ctx context.Context, relativePath string) error
	Resolve(ctx context.Context, relativePath string) (string, error)
}

// LivrableHandler обслуживает результаты работы по заказу.
type LivrableHandler struct {
	orders *order.UseCases
	files  FileStore
	log    *logrus.Logger
}

func NewLivrableHandler(orders *order.UseCases, files FileStore, log *logrus.Logger) *LivrableHandler {
	return &LivrableHandler{orders: orders, files: files, log: log}
}

type rejectLivrableRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Submit обрабатывает POST /api/orders/:id/livrables (multipart/form-data).
// Поля: name, description, file (необязательно).
func (h *LivrableHandler) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := parseUUIDParam(c, "id", "заказа")
	if !ok {
		return
	}

	// Файл сохраняется только для заказа, который актор вообще видит.
	if _, err := h.orders.Get.Execute(c.Request.Context(), actor, orderID); err != nil {
		response.Error(c, err)
		return
	}

	input := order.SubmitDeliverableInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
	}

	fileHeader, err := c.FormFile("file")
	if err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			response.BadRequest(c, "не удалось прочитать файл")
			return
		}
		stored, err := h.files.Save(c.Request.Context(), orderID, fileHeader.Filename, src)
		_ = src.Close()
		if err != nil {
			response.Error(c, err)
			return
		}
		input.FilePath = &stored.Path
	}

	res, livrable, err := h.orders.SubmitDeliverable.Execute(c.Request.Context(), actor, orderID, input)
	if err != nil {
		if input.FilePath != nil {
			if delErr := h.files.Delete(context.WithoutCancel(c.Request.Context()), *input.FilePath); delErr != nil {
				h.log.WithError(delErr).WithField("path", *input.FilePath).Warn("не удалось удалить файл отклонённого результата")
			}
		}
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SubmitLivrableResponse{
		Livrable: dto.ToLivrableResponse(livrable),
		Order:    dto.ToOrderResponse(res.Order),
	})
}

// Download обрабатывает GET /api/livrables/:id/file.
// Файл отдаётся только тому, кто видит заказ результата.
func (h *LivrableHandler) Download(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	livrableID, ok := parseUUIDParam(c, "id", "результата")
	if !ok {
		return
	}

	livrable, err := h.orders.GetDeliverable.Execute(c.Request.Context(), actor, livrableID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if livrable.FilePath == nil {
		response.NotFound(c, "у результата нет файла")
		return
	}

	path, err := h.files.Resolve(c.Request.Context(), *livrable.FilePath)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Review обрабатывает PUT /api/livrables/:id/review.
func (h *LivrableHandler) Review(c *gin.Context) {
	h.decide(c, func(ctx context.Context, id uuid.UUID) (*order.Result, error) {
		actor, _ := currentActor(c)
		return h.orders.ReviewDeliverable.Execute(ctx, actor, id)
	})
}

// Accept обрабатывает PUT /api/livrables/:id/accept.
func (h *LivrableHandler) Accept(c *gin.Context) {
	h.decide(c, func(ctx context.Context, id uuid.UUID) (*order.Result, error) {
		actor, _ := currentActor(c)
		return h.orders.AcceptDeliverable.Execute(ctx, actor, id)
	})
}

// Reject обрабатывает PUT /api/livrables/:id/reject.
func (h *LivrableHandler) Reject(c *gin.Context) {
	var req rejectLivrableRequest
	h.decide(c, func(ctx context.Context, id uuid.UUID) (*order.Result, error) {
		actor, _ := currentActor(c)
		return h.orders.RejectDeliverable.Execute(ctx, actor, id, req.Reason)
	}, &req)
}

// decide - общий путь для решений по результату: разбор ID и тела, вызов сценария, ответ заказом.
func (h *LivrableHandler) decide(c *gin.Context, run func(ctx context.Context, id uuid.UUID) (*order.Result, error), body ...interface{}) {
	if _, ok := currentActor(c); !ok {
		return
	}
	livrableID, ok := parseUUIDParam(c, "id", "результата")
	if !ok {
		return
	}
	for _, b := range body {
		if !bindJSON(c, b) {
			return
		}
	}

	res, err := run(c.Request.Context(), livrableID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(res.Order))
}
