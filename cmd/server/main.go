package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/pharmacy/backend/internal/application/inventory"
	reportapp "github.com/pharmacy/backend/internal/application/report"
	tradeapp "github.com/pharmacy/backend/internal/application/trade"
	"github.com/pharmacy/backend/internal/domain/shared"
	"github.com/pharmacy/backend/internal/infrastructure/auth"
	"github.com/pharmacy/backend/internal/infrastructure/cache"
	"github.com/pharmacy/backend/internal/infrastructure/config"
	"github.com/pharmacy/backend/internal/infrastructure/event"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/infrastructure/persistence"
	"github.com/pharmacy/backend/internal/infrastructure/telemetry"
	"github.com/pharmacy/backend/internal/interfaces/http/handler"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"github.com/pharmacy/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacy POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to auto-migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migrated")
	}

	dbSystem := "postgresql"
	if db.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, mp, telemetry.DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	// Repositories
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	inventoryItemRepo := persistence.NewGormInventoryItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)

	// Application services
	inventoryService := inventoryapp.NewInventoryService(
		inventoryItemRepo,
		persistence.NewGormInventoryTransactionScope(db.DB),
		log,
	)
	saleService := tradeapp.NewSaleService(
		warehouseRepo,
		medicineRepo,
		inventoryItemRepo,
		saleRepo,
		persistence.NewGormSaleTransactionScope(db.DB),
		tradeapp.SaleServiceConfig{
			NumberMaxRetries: cfg.Sales.NumberMaxRetries,
			IdempotencyTTL:   cfg.Sales.IdempotencyTTL,
		},
		log,
	)
	receipts, err := tradeapp.NewReceiptFormatter(cfg.Sales.Locale, cfg.Sales.Currency)
	if err != nil {
		log.Fatal("Invalid receipt locale or currency", zap.Error(err))
	}
	saleService.SetReceiptFormatter(receipts)
	ledgerService := reportapp.NewLedgerQueryService(inventoryItemRepo, movementRepo, saleRepo, log)

	// Idempotency store, shared by sale creation and event handlers
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	saleService.SetIdempotencyStore(idempotencyStore)

	// Business metrics
	var businessMetrics *telemetry.BusinessMetrics
	if mp.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:             mp.Meter("pharmacy.pos"),
			Logger:            log,
			CollectInterval:   cfg.Telemetry.MetricsInterval,
			InventoryProvider: telemetry.NewGormInventoryMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create business metrics", zap.Error(err))
		}
		inventoryService.SetBusinessMetrics(businessMetrics)
		saleService.SetBusinessMetrics(businessMetrics)
		businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), cfg.Telemetry.MetricsInterval)
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		inventoryapp.NewStockBelowThresholdHandler(log).WithBusinessMetrics(businessMetrics),
		idempotencyStore,
		log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	inventoryService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		}),
		middleware.Secure(),
		middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	healthHandler := handler.NewHealthHandler(db, version)
	engine.GET("/health", healthHandler.Health)

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuth(middleware.DefaultJWTConfig(jwtService, log)),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(mp.Meter("http.server")),
	)
	if cfg.HTTP.RateLimitEnabled {
		r.Use(rateLimitMiddleware(cfg.HTTP, idempotencyStore, log))
	}

	inventoryHandler := handler.NewInventoryHandler(inventoryService, ledgerService)
	saleHandler := handler.NewSaleHandler(saleService)
	reportHandler := handler.NewReportHandler(ledgerService)

	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory").
		POST("/movements", inventoryHandler.RecordMovement).
		GET("/movements", inventoryHandler.ListMovements).
		GET("/items/:id", inventoryHandler.GetItem).
		POST("/items/:id/adjust", inventoryHandler.AdjustStock).
		GET("/low-stock", inventoryHandler.ListLowStock)

	saleRoutes := router.NewDomainGroup("sales", "/sales").
		POST("", saleHandler.Create).
		GET("", saleHandler.List).
		GET("/:id", saleHandler.GetByID).
		POST("/:id/cancel", saleHandler.Cancel).
		GET("/:id/receipt", saleHandler.GetReceipt)

	reportRoutes := router.NewDomainGroup("reports", "/reports").
		GET("/sales-statistics", reportHandler.GetSalesStatistics)

	r.Register(inventoryRoutes).
		Register(saleRoutes).
		Register(reportRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if businessMetrics != nil {
		businessMetrics.Stop()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// rateLimitMiddleware shares counters through Redis when the idempotency
// store is Redis backed
func rateLimitMiddleware(cfg config.HTTPConfig, store shared.IdempotencyStore, log *zap.Logger) gin.HandlerFunc {
	limCfg := middleware.RateLimitConfig{
		Requests: int64(cfg.RateLimitRequests),
		Window:   cfg.RateLimitWindow,
		Logger:   log,
	}
	if rs, ok := store.(*cache.RedisIdempotencyStore); ok {
		limCfg.Redis = rs.Client()
	}
	lim, err := middleware.NewRateLimiter(limCfg)
	if err != nil {
		log.Fatal("Failed to create rate limiter", zap.Error(err))
	}
	return middleware.RateLimit(lim, log)
}
