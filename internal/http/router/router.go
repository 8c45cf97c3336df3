package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/config"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/handlers"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/middleware"
)

// Handlers - все хэндлеры API.
type Handlers struct {
	Health        *handlers.HealthHandler
	Users         *handlers.UserHandler
	Orders        *handlers.OrderHandler
	Intake        *handlers.IntakeHandler
	Livrables     *handlers.LivrableHandler
	Settings      *handlers.SettingsHandler
	Notifications *handlers.NotificationHandler
	WS            *handlers.WSHandler
}

func SetupRouter(cfg *config.Config, log *logrus.Logger, tokens middleware.TokenParser, h Handlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	// Вход и публичный приём заказов ограничены строже.
	public := api.Group("")
	public.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		public.POST("/auth/login", h.Users.Login)
		public.POST("/public/orders", h.Intake.CreatePublicOrder)
	}
	api.GET("/public/services", h.Intake.ListServices)

	// WebSocket проверяет токен из query сам.
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		orders := protected.Group("/orders")
		{
			orders.POST("", middleware.RequireRole(valueobject.RoleAdmin, valueobject.RoleClient), h.Orders.CreateOrder)
			orders.GET("", h.Orders.ListOrders)
			orders.GET("/:id", middleware.UUIDValidator("id"), h.Orders.GetOrder)
			orders.PATCH("/:id", middleware.UUIDValidator("id"), middleware.RequireRole(valueobject.RoleAdmin), h.Orders.UpdateOrder)
			orders.PUT("/:id/status", middleware.UUIDValidator("id"), h.Orders.UpdateStatus)
			orders.POST("/:id/cancel", middleware.UUIDValidator("id"), h.Orders.CancelOrder)
			orders.PUT("/:id/collaborator", middleware.UUIDValidator("id"), middleware.RequireRole(valueobject.RoleAdmin), h.Orders.AssignCollaborator)
			orders.POST("/:id/commission", middleware.UUIDValidator("id"), middleware.RequireRole(valueobject.RoleAdmin), h.Orders.ApplyCommission)
			orders.GET("/:id/history", middleware.UUIDValidator("id"), h.Orders.GetHistory)
			orders.POST("/:id/livrables", middleware.UUIDValidator("id"), middleware.RequireRole(valueobject.RoleCollaborator, valueobject.RoleAdmin), h.Livrables.Submit)
		}

		livrables := protected.Group("/livrables/:id", middleware.UUIDValidator("id"))
		{
			livrables.GET("/file", h.Livrables.Download)
			livrables.PUT("/review", middleware.RequireRole(valueobject.RoleAdmin), h.Livrables.Review)
			livrables.PUT("/accept", h.Livrables.Accept)
			livrables.PUT("/reject", h.Livrables.Reject)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notifications.ListNotifications)
			notifications.GET("/unread-count", h.Notifications.CountUnread)
			notifications.PUT("/read-all", h.Notifications.MarkAllAsRead)
			notifications.PUT("/:id/read", middleware.UUIDValidator("id"), h.Notifications.MarkAsRead)
		}

		admin := protected.Group("/admin", middleware.RequireRole(valueobject.RoleAdmin))
		{
			admin.GET("/settings", h.Settings.Get)
			admin.POST("/settings", h.Settings.Create)
			admin.PUT("/settings", h.Settings.Update)
			admin.PUT("/services/:id/commission", middleware.UUIDValidator("id"), h.Settings.SetServiceCommission)
			admin.DELETE("/services/:id/commission", middleware.UUIDValidator("id"), h.Settings.DeleteServiceCommission)
			admin.POST("/collaborators", h.Users.CreateCollaborator)
			admin.PUT("/users/:id/deactivate", middleware.UUIDValidator("id"), h.Users.Deactivate)
		}
	}

	return r
}
