package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ngo_backend/database"
	"ngo_backend/internal/auth"
	"ngo_backend/internal/cache"
	"ngo_backend/internal/config"
	"ngo_backend/internal/events"
	"ngo_backend/internal/handlers"
	"ngo_backend/internal/logger"
	"ngo_backend/internal/middleware"
	"ngo_backend/internal/routes"
	"ngo_backend/internal/services"
	"ngo_backend/internal/services/payment"
	"ngo_backend/internal/storage"
	"ngo_backend/internal/validator"
	"ngo_backend/internal/workers"
	"ngo_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// вебхуки и формы доноров - единицы килобайт
const maxBodyBytes = 1 << 20

// App - собранное приложение; Close освобождает внешние клиенты.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Services *services.ServiceContainer
	closers  []func() error
}

// Bootstrap: конфиг → логгер → БД (+ миграция) → сервисы
func Bootstrap(ctx context.Context) (*App, error) {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.Debug = cfg.IsDevelopment()
	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(gormDB); err != nil {
			return nil, err
		}
	}

	a, err := New(ctx, cfg, gormDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)
	return a, nil
}

// New собирает сервисы поверх готовой БД; используется и тестами.
func New(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) (*App, error) {
	a := &App{Config: cfg, DB: gormDB}

	infra, err := a.initializeInfrastructure(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Services = services.NewServiceContainer(infra, services.DonationServiceConfig{
		KeySecret:     cfg.Gateway.KeySecret,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Currency:      cfg.Gateway.Currency,
		StaleAfter:    time.Duration(cfg.Reconciliation.StaleAfterMinutes) * time.Minute,
		BatchSize:     cfg.Reconciliation.BatchSize,
	})
	return a, nil
}

func (a *App) initializeInfrastructure(ctx context.Context) (services.Infrastructure, error) {
	cfg := a.Config
	var infra services.Infrastructure

	// --- Платёжный шлюз ---
	if cfg.Gateway.KeyID == "" {
		logger.Warn("--- gateway.key_id не задан. Используется MOCK-шлюз. ---")
		infra.Gateway = NewMockGateway()
	} else {
		infra.Gateway = payment.NewRazorpayService(cfg.Gateway.KeyID, cfg.Gateway.KeySecret,
			cfg.Gateway.BaseURL, time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second)
	}
	if cfg.Gateway.WebhookSecret == "" {
		logger.Warn("gateway.webhook_secret is empty, every webhook will be rejected")
	}

	// --- Номера квитанций ---
	receipts, err := services.NewReceiptGenerator(cfg.Receipts.Prefix, cfg.Receipts.NodeID)
	if err != nil {
		return infra, err
	}
	infra.Receipts = receipts

	// --- Кэш ссылок ---
	infra.LinkCache = cache.NoopLinkCache{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return infra, err
		}
		a.closers = append(a.closers, client.Close)
		infra.LinkCache = cache.NewRedisLinkCache(client, time.Duration(cfg.Redis.LinkTTLSeconds)*time.Second)
		logger.Info("Redis link cache enabled", "addr", cfg.Redis.Addr)
	}

	// --- События ---
	infra.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return infra, err
		}
		a.closers = append(a.closers, publisher.Close)
		infra.Publisher = publisher
		logger.Info("Kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}

	// --- Архив вебхуков ---
	archive, err := storage.NewArchive(ctx, storage.Config{
		Type:      cfg.Archive.Type,
		BasePath:  cfg.Archive.BasePath,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
	})
	if err != nil {
		return infra, fmt.Errorf("failed to initialize archive: %w", err)
	}
	infra.Archive = archive
	logger.Info("Webhook archive initialized", "type", cfg.Archive.Type)

	return infra, nil
}

// Close - в обратном порядке создания
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run - HTTP-сервер и воркер сверки до SIGINT/SIGTERM
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := Bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config
	var background []<-chan struct{}
	if cfg.Reconciliation.Enabled {
		worker := workers.NewReconciliationWorker(a.DB, a.Services.DonationService,
			time.Duration(cfg.Reconciliation.IntervalSeconds)*time.Second)
		worker.Start(ctx)
		background = append(background, worker.Done())
	}
	// воркеры останавливаются до закрытия пула БД в a.Close
	defer stopBackground(stop, background...)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           SetupRouter(cfg, a.DB, a.Services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// stopBackground отменяет контекст фоновых задач и ждёт, пока текущий проход
// сверки закончится.
func stopBackground(stop context.CancelFunc, done ...<-chan struct{}) {
	stop()
	for _, ch := range done {
		<-ch
	}
	if len(done) > 0 {
		logger.Info("Background workers stopped")
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, container *services.ServiceContainer) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	appHandlers := initializeHandlers(container)
	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		DonationHandler: handlers.NewDonationHandler(baseHandler, container.DonationService),
		HealthHandler:   handlers.NewHealthHandler(baseHandler),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.BodyLimitMiddleware(maxBodyBytes))
	router.Use(middleware.DBMiddleware(db))
	return router
}

// Migrate - только схема, без сервисов
func Migrate() error {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)

	gormDB, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return database.Migrate(gormDB)
}
