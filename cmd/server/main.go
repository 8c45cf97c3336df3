package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/config"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/db"
	domain "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/goroutine"
	httpHandlers "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/handlers"
	httpRouter "github.com/ouchin55edcx/ls-sademy-api-sub000/internal/http/router"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/infrastructure/memory"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/jobs"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/logger"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/notifier"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/repository"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/service"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/storage"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/usecase/order"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/worker"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/ws"
)

// stores - репозитории выбранного драйвера.
type stores struct {
	orders        domain.OrderRepository
	livrables     domain.LivrableRepository
	history       domain.HistoryRepository
	statuses      domain.StatusRepository
	users         domain.UserRepository
	services      domain.ServiceRepository
	notifications domain.NotificationRepository
	settings      domain.SettingsRepository
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	appLog := logger.Init(cfg.LogLevel, cfg.IsProduction())
	goroutine.SetDefaultLogger(appLog)

	// Хранилище.
	var dbConn *sqlx.DB
	var st stores
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		appLog.Warn("main: данные хранятся в памяти и пропадут после перезапуска")
		st = memoryStores(memory.NewStore())
	default:
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			appLog.WithError(err).Fatal("main: ошибка подключения к базе")
		}
		defer safeClose(dbConn, appLog)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			appLog.WithError(err).Fatal("main: ошибка миграций")
		}
		st = postgresStores(repository.New(dbConn))
	}

	// Вспомогательные сервисы.
	cache := service.NewCacheService()
	defer cache.Close()

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	settingsService := service.NewSettingsService(st.settings, st.services, cache, cfg.SettingsCacheTTL)
	notificationService := service.NewNotificationService(st.notifications)

	livrableStorage, err := storage.NewLivrableStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		appLog.WithError(err).Fatal("main: не удалось подготовить файловое хранилище")
	}

	// Каналы доставки. Ненастроенный канал просто не регистрируется.
	channels := notifier.NewRouter()
	if email := notifier.NewEmailNotifier(notifier.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}); email != nil {
		channels.Handle(valueobject.ChannelEmail, email)
	}
	if sms := notifier.NewSMSNotifier(notifier.SMSConfig{
		BaseURL:     cfg.SMS.BaseURL,
		APIKey:      cfg.SMS.APIKey,
		Sender:      cfg.SMS.Sender,
		CountryCode: cfg.SMS.CountryCode,
		Timeout:     10 * time.Second,
	}); sms != nil {
		channels.Handle(valueobject.ChannelSMS, sms)
	}

	runner := worker.NewRunner(worker.Config{
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		MaxRetries:  cfg.Worker.MaxRetries,
		BackoffBase: cfg.Worker.BackoffBase,
	}, appLog)

	// Вебсокеты.
	hub := ws.NewHub(ctx, appLog)
	goroutine.SafeGo(hub.Run)

	dispatcher := service.NewNotificationDispatcher(service.DispatcherDeps{
		Orders:        st.orders,
		Users:         st.users,
		Notifications: st.notifications,
		Pusher:        ws.NewNotificationPusher(hub),
		Tasks:         runner,
		Sender:        channels,
		AdminPhone:    cfg.AdminPhone,
		Log:           appLog,
	})
	dispatcher.RegisterTasks(runner)
	runner.Start()

	userService := service.NewUserService(st.users, tokenManager, dispatcher, appLog)

	orders := order.NewUseCases(order.Dependencies{
		Orders:    st.orders,
		Livrables: st.livrables,
		History:   st.history,
		Statuses:  st.statuses,
		Users:     st.users,
		Services:  st.services,
		Settings:  settingsService,
		Publisher: dispatcher,
		Now:       time.Now,
	})

	// Начальные данные.
	seed := service.NewSeedService(st.users, st.services, settingsService, appLog)
	if err := seed.Seed(ctx, service.SeedInput{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		AdminPhone:    cfg.Seed.AdminPhone,
		Services:      cfg.Seed.Services,
	}); err != nil {
		appLog.WithError(err).Fatal("main: ошибка начального заполнения")
	}

	// Напоминания по расписанию.
	reminders := service.NewReminderService(st.orders, dispatcher, cfg.Reminders.DeadlineWindow, appLog)
	jobManager := jobs.NewJobManager(reminders, jobs.Schedules{
		Deadline: cfg.Reminders.DeadlineSchedule,
		Payment:  cfg.Reminders.PaymentSchedule,
	}, appLog)
	if err := jobManager.StartAll(); err != nil {
		appLog.WithError(err).Fatal("main: ошибка запуска фоновых заданий")
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, appLog, tokenManager, httpRouter.Handlers{
		Health:        httpHandlers.NewHealthHandler(dbConn, cfg.StorageDriver),
		Users:         httpHandlers.NewUserHandler(userService),
		Orders:        httpHandlers.NewOrderHandler(orders),
		Intake:        httpHandlers.NewIntakeHandler(orders, userService, st.services),
		Livrables:     httpHandlers.NewLivrableHandler(orders, livrableStorage, appLog),
		Settings:      httpHandlers.NewSettingsHandler(settingsService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins, appLog),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	appLog.WithFields(logrus.Fields{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"env":     cfg.Env,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.WithError(err).Error("main: сервер завершился с ошибкой")
	}

	// Останавливаем фон: сначала расписание, потом очередь уведомлений.
	jobManager.StopAll()
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := runner.Stop(drainCtx); err != nil {
		appLog.WithError(err).Warn("main: очередь задач остановлена с потерей задач")
	}
	appLog.Info("main: сервер остановлен")
}

func memoryStores(s *memory.Store) stores {
	return stores{
		orders:        s.Orders(),
		livrables:     s.Livrables(),
		history:       s.History(),
		statuses:      s.Statuses(),
		users:         s.Users(),
		services:      s.Services(),
		notifications: s.Notifications(),
		settings:      s.Settings(),
	}
}

func postgresStores(r *repository.Repositories) stores {
	return stores{
		orders:        r.Orders,
		livrables:     r.Livrables,
		history:       r.History,
		statuses:      r.Statuses,
		users:         r.Users,
		services:      r.Services,
		notifications: r.Notifications,
		settings:      r.Settings,
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB, log *logrus.Logger) {
	if err := conn.Close(); err != nil {
		log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
