package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/config"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/handlers"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/infrastructure/memory"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/storage"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/ws"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type apiEnv struct {
	router    *gin.Engine
	store     *memory.Store
	tokens    *service.TokenManager
	serviceID uuid.UUID
	admin     *entity.User
	client    *entity.User
	collab    *entity.User
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	cache := service.NewCacheService()
	t.Cleanup(cache.Close)

	cfg := &config.Config{
		Env:              "test",
		AllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitLimit:   1000,
		RateLimitPeriod:  time.Minute,
		MediaStoragePath: t.TempDir(),
	}

	tokens := service.NewTokenManager("router-test-secret", time.Hour)
	settings := service.NewSettingsService(store.Settings(), store.Services(), cache, time.Minute)
	users := service.NewUserService(store.Users(), tokens, nil, logger)
	files, err := storage.NewLivrableStorage(cfg.MediaStoragePath, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(ctx, logger)

	orders := order.NewUseCases(order.Dependencies{
		Orders:    store.Orders(),
		Livrables: store.Livrables(),
		History:   store.History(),
		Statuses:  store.Statuses(),
		Users:     store.Users(),
		Services:  store.Services(),
		Settings:  settings,
	})

	env := &apiEnv{store: store, tokens: tokens, serviceID: uuid.New()}
	store.AddService(&entity.Service{ID: env.serviceID, Name: "Logo design", IsActive: true})
	env.admin = addUser(t, store, "admin", valueobject.RoleAdmin)
	env.client = addUser(t, store, "client", valueobject.RoleClient)
	env.collab = addUser(t, store, "collab", valueobject.RoleCollaborator)

	env.router = SetupRouter(cfg, logger, tokens, Handlers{
		Health:        handlers.NewHealthHandler(nil, config.StorageDriverMemory),
		Users:         handlers.NewUserHandler(users),
		Orders:        handlers.NewOrderHandler(orders),
		Intake:        handlers.NewIntakeHandler(orders, users, store.Services()),
		Livrables:     handlers.NewLivrableHandler(orders, files, logger),
		Settings:      handlers.NewSettingsHandler(settings),
		Notifications: handlers.NewNotificationHandler(service.NewNotificationService(store.Notifications())),
		WS:            handlers.NewWSHandler(hub, tokens, cfg.AllowedOrigins, logger),
	})
	return env
}

func addUser(t *testing.T, store *memory.Store, name string, role valueobject.Role) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{
		ID:           uuid.New(),
		Username:     name,
		Email:        name + "@example.com",
		Phone:        "0612345678",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func (e *apiEnv) token(t *testing.T, u *entity.User) string {
	t.Helper()
	pair, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *apiEnv) do(t *testing.T, method, path string, as *entity.User, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	}
	return e.serve(t, req)
}

func (e *apiEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type orderView struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Livrables   []struct {
		ID       uuid.UUID `json:"id"`
		FilePath *string   `json:"file_path"`
	} `json:"livrables"`
}

func decodeOrder(t *testing.T, raw json.RawMessage) orderView {
	t.Helper()
	var o orderView
	require.NoError(t, json.Unmarshal(raw, &o))
	return o
}

func (e *apiEnv) createOrder(t *testing.T) orderView {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/orders", e.admin, map[string]interface{}{
		"client_id":       e.client.ID.String(),
		"service_id":      e.serviceID.String(),
		"collaborator_id": e.collab.ID.String(),
		"deadline_at":     "2030-01-15",
		"total_price":     "1000.00",
		"advance_payment": 300,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeOrder(t, body.Data)
}

func TestRouter_HealthWithoutDatabase(t *testing.T) {
	env := newAPIEnv(t)

	w, _ := env.serve(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_LoginIssuesUsableToken(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    "client@example.com",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w, _ = env.serve(t, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    "client@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestRouter_OrderLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createOrder(t)
	assert.Equal(t, "pending", created.Status)
	assert.Regexp(t, `^ORD-\d{4}-0001$`, created.OrderNumber)

	statusPath := "/api/orders/" + created.ID.String() + "/status"

	w, _ := env.do(t, http.MethodPut, statusPath, env.admin, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Клиент не может начать работу над заказом.
	w, body := env.do(t, http.MethodPut, statusPath, env.client, map[string]string{"status": "in_progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED_TRANSITION", body.Error.Code)

	w, _ = env.do(t, http.MethodPut, statusPath, env.collab, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Исполнитель загружает результат с файлом.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Логотип, финальная версия"))
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+created.ID.String()+"/livrables", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.collab))
	w, body = env.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var submitted struct {
		Livrable struct {
			ID       uuid.UUID `json:"id"`
			FilePath *string   `json:"file_path"`
		} `json:"livrable"`
		Order orderView `json:"order"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &submitted))
	assert.Equal(t, "under_review", submitted.Order.Status)
	require.NotNil(t, submitted.Livrable.FilePath)

	livrablePath := "/api/livrables/" + submitted.Livrable.ID.String()

	// Принять до проверки администратором нельзя.
	w, _ = env.do(t, http.MethodPut, livrablePath+"/accept", env.client, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPut, livrablePath+"/review", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body = env.do(t, http.MethodPut, livrablePath+"/accept", env.client, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decodeOrder(t, body.Data).Status)

	w, body = env.do(t, http.MethodGet, "/api/orders/"+created.ID.String()+"/history", env.client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &history))
	statuses := make([]string, 0, len(history))
	for _, h := range history {
		statuses = append(statuses, h.Status)
	}
	assert.Equal(t, []string{"completed", "under_review", "in_progress", "confirmed", "pending"}, statuses)
}

func TestRouter_CancelRequiresReason(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createOrder(t)
	path := "/api/orders/" + created.ID.String() + "/cancel"

	w, _ := env.do(t, http.MethodPost, path, env.client, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := env.do(t, http.MethodPost, path, env.client, map[string]string{"reason": "передумал"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cancelled", decodeOrder(t, body.Data).Status)

	// Из терминального статуса переходов нет.
	w, _ = env.do(t, http.MethodPut, "/api/orders/"+created.ID.String()+"/status", env.admin, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_RoleGuards(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createOrder(t)

	w, _ := env.do(t, http.MethodGet, "/api/admin/settings", env.client, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodPatch, "/api/orders/"+created.ID.String(), env.collab, map[string]string{"comment": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/orders/not-a-uuid", env.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stranger := addUser(t, env.store, "stranger", valueobject.RoleClient)
	w, _ = env.do(t, http.MethodGet, "/api/orders/"+created.ID.String(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_SettingsAndServiceCommission(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/admin/settings", env.admin, map[string]interface{}{
		"commission_type":       "percentage",
		"commission_value":      "15",
		"is_commission_enabled": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = env.do(t, http.MethodPost, "/api/admin/settings", env.admin, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	w, _ = env.do(t, http.MethodPut, "/api/admin/settings", env.admin, map[string]interface{}{"commission_value": "150"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/admin/services/" + env.serviceID.String() + "/commission"
	w, _ = env.do(t, http.MethodPut, path, env.admin, map[string]interface{}{
		"commission_type":  "fixed",
		"commission_value": "100",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = env.do(t, http.MethodDelete, path, env.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/admin/services/"+uuid.NewString()+"/commission", env.admin, map[string]interface{}{
		"commission_type":  "fixed",
		"commission_value": "100",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PublicIntakeCreatesConfirmedOrder(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/public/orders", nil, map[string]interface{}{
		"full_name":   "new client",
		"email":       "new.client@example.com",
		"phone":       "0612345678",
		"service_id":  env.serviceID.String(),
		"deadline_at": "2030-03-01T12:00:00Z",
		"total_price": "450",
		"quotation":   "Логотип и фирменный стиль",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "confirmed", created.Status)

	client, err := env.store.Users().GetByEmail(context.Background(), "new.client@example.com")
	require.NoError(t, err)
	assert.Equal(t, valueobject.RoleClient, client.Role)

	// Email сотрудника не может оформить заказ через публичную форму.
	w, _ = env.do(t, http.MethodPost, "/api/public/orders", nil, map[string]interface{}{
		"email":       "collab@example.com",
		"phone":       "0612345678",
		"service_id":  env.serviceID.String(),
		"deadline_at": "2030-03-01",
		"total_price": "450",
		"quotation":   "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/public/services", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), "Logo design")
}

func TestRouter_AdminCreatesAndDeactivatesCollaborator(t *testing.T) {
	env := newAPIEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/admin/collaborators", env.admin, map[string]string{
		"username": "designer",
		"email":    "designer@example.com",
		"phone":    "0611111111",
		"password": "Str0ngPass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID   uuid.UUID `json:"id"`
		Role string    `json:"role"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "collaborator", created.Role)

	w, _ = env.do(t, http.MethodPut, "/api/admin/users/"+created.ID.String()+"/deactivate", env.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/auth/login", nil, map[string]string{
		"email":    "designer@example.com",
		"password": "Str0ngPass",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Notifications(t *testing.T) {
	env := newAPIEnv(t)
	orderID := uuid.New()
	require.NoError(t, env.store.Notifications().Create(context.Background(), &entity.Notification{
		ID:          uuid.New(),
		RecipientID: env.client.ID,
		Type:        valueobject.NotificationOrderStatusChanged,
		Title:       "Статус заказа изменён",
		Priority:    valueobject.PriorityMedium,
		OrderID:     &orderID,
		CreatedAt:   time.Now(),
	}))

	w, body := env.do(t, http.MethodGet, "/api/notifications/unread-count", env.client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, string(body.Data))

	w, _ = env.do(t, http.MethodPut, "/api/notifications/read-all", env.client, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/notifications/unread-count", env.client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, string(body.Data))
}

func TestRouter_DeliverableFileFollowsOrderAccess(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createOrder(t)
	statusPath := "/api/orders/" + created.ID.String() + "/status"

	w, _ := env.do(t, http.MethodPut, statusPath, env.admin, map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = env.do(t, http.MethodPut, statusPath, env.collab, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Макет"))
	part, err := mw.CreateFormFile("file", "mockup.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/orders/"+created.ID.String()+"/livrables", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.collab))
	w, body := env.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var submitted struct {
		Livrable struct {
			ID       uuid.UUID `json:"id"`
			FilePath *string   `json:"file_path"`
		} `json:"livrable"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &submitted))
	require.NotNil(t, submitted.Livrable.FilePath)

	get := func(path string, as *entity.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if as != nil {
			req.Header.Set("Authorization", "Bearer "+env.token(t, as))
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}
	download := func(as *entity.User) *httptest.ResponseRecorder {
		return get("/api/livrables/"+submitted.Livrable.ID.String()+"/file", as)
	}

	for _, u := range []*entity.User{env.client, env.collab, env.admin} {
		w := download(u)
		require.Equal(t, http.StatusOK, w.Code, u.Username)
		assert.Equal(t, pngHeader, w.Body.Bytes(), u.Username)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	}

	otherClient := addUser(t, env.store, "other_client", valueobject.RoleClient)
	otherCollab := addUser(t, env.store, "other_collab", valueobject.RoleCollaborator)
	assert.Equal(t, http.StatusForbidden, download(otherClient).Code)
	assert.Equal(t, http.StatusForbidden, download(otherCollab).Code)
	assert.Equal(t, http.StatusUnauthorized, download(nil).Code)

	// Прямой доступ к каталогу хранилища закрыт.
	assert.Equal(t, http.StatusNotFound, get("/api/media/"+*submitted.Livrable.FilePath, env.client).Code)
}
