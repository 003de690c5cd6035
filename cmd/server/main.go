package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/event"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/migration"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/printing"
	"github.com/retailpos/backend/internal/infrastructure/storage"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	_ "github.com/retailpos/backend/docs"
)

//	@title			POS Backend API
//	@version		1.0
//	@description	Multi-tenant point-of-sale API: cash register sessions, sales, promotions and receipt verification.

//	@contact.name	API Support
//	@contact.url	https://github.com/retailpos/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

// eventDedupTTL bounds how long a delivered event ID is remembered per handler
const eventDedupTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := context.Background()

	// OpenTelemetry: traces, metrics and logs share one collector
	telCfg := telemetry.Config{
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		TracesEnabled:     cfg.Telemetry.TracesEnabled,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		LogsMinLevel:      cfg.Log.Level,
	}

	logProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "log provider", logProvider.Shutdown)
	log = logProvider.Attach(log)

	log.Info("Starting POS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	defer shutdownWithTimeout(log, "meter provider", meterProvider.Shutdown)
	meter := meterProvider.Meter("pos-backend")

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
		ProfileTypes:    cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, cfg.Telemetry.DBSlowQueryThresh)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbInstrumentation, err := telemetry.InstrumentDB(db.DB, meter, telemetry.DBConfig{
		Tracing:            tracerProvider.IsEnabled(),
		DBSystem:           "postgresql",
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() {
		if err := dbInstrumentation.Stop(); err != nil {
			log.Error("Error stopping database instrumentation", zap.Error(err))
		}
	}()

	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	// Production schemas are migrated with cmd/migrate before deploys
	if cfg.App.Env != "production" {
		if err := runMigrations(sqlDB, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	creditRepo := persistence.NewGormCreditTransactionRepository(db.DB)
	promotionRepo := persistence.NewGormPromotionRepository(db.DB)
	saleRepo := persistence.NewGormSaleRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	stockRepo := persistence.NewGormShopStockRepository(db.DB)

	posTxScope := persistence.NewGormPOSTransactionScope(db.DB)
	inventoryTxScope := persistence.NewGormInventoryTransactionScope(db.DB)

	// Idempotency keys: Redis when configured, process memory otherwise
	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}

	receiptRenderer, err := printing.NewTextReceiptRenderer(printing.ReceiptConfig{
		StoreName:     cfg.POS.StoreName,
		Currency:      cfg.POS.Currency,
		Locale:        cfg.POS.Locale,
		VerifyBaseURL: cfg.POS.VerifyBaseURL,
	})
	if err != nil {
		log.Fatal("Failed to initialize receipt renderer", zap.Error(err))
	}

	// POS business metrics
	posMetrics, err := telemetry.NewPOSMetrics(telemetry.POSMetricsConfig{
		Meter:         meter,
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize POS metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		posMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), time.Minute)
	}
	defer posMetrics.Stop()

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	stockService := inventoryapp.NewStockService(inventoryTxScope, stockRepo, productRepo)
	customerService := partnerapp.NewCustomerService(customerRepo, creditRepo)
	promotionService := posapp.NewPromotionService(promotionRepo)

	saleService := posapp.NewSaleService(posTxScope, saleRepo, saleServiceConfig(cfg.POS))
	saleService.SetIdempotencyStore(idempotencyStore)
	saleService.SetReceiptRenderer(receiptRenderer)
	saleService.SetPOSMetrics(posMetrics)

	sessionService := posapp.NewSessionService(posTxScope, sessionRepo, saleRepo)
	sessionService.SetPOSMetrics(posMetrics)

	// Initialize event bus and subscribe handlers
	eventBus := event.NewInMemoryEventBus(log)

	receiptStore, err := newReceiptStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize receipt store", zap.Error(err))
	}
	if receiptStore != nil {
		receiptArchiveHandler := posapp.NewReceiptArchiveHandler(saleRepo, receiptRenderer, receiptStore, log)
		// Uploads run on background workers, off the sale request
		archiver := event.NewAsyncHandler("receipt-archive",
			event.NewIdempotentHandler("receipt-archive", receiptArchiveHandler, idempotencyStore, eventDedupTTL, log),
			event.DefaultAsyncHandlerConfig(), log)
		if err := archiver.Start(ctx); err != nil {
			log.Fatal("Failed to start receipt archiver", zap.Error(err))
		}
		defer shutdownWithTimeout(log, "receipt archiver", archiver.Stop)
		eventBus.Subscribe(archiver)
	}

	stockAlertHandler := inventoryapp.NewStockBelowMinimumHandler(log).
		WithNotifier(inventoryapp.NewLoggingStockAlertNotifier(log))
	eventBus.Subscribe(event.NewIdempotentHandler("stock-alert", stockAlertHandler, idempotencyStore, eventDedupTTL, log))

	eventBus.Subscribe(event.NewLogHandler(log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	productService.SetEventPublisher(eventBus)
	customerService.SetEventPublisher(eventBus)
	saleService.SetEventPublisher(eventBus)
	sessionService.SetEventPublisher(eventBus)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup custom validator with readable messages
	middleware.SetupValidator()

	var jwtService *auth.JWTService
	if cfg.JWT.Enabled {
		jwtService = auth.NewJWTService(cfg.JWT)
	} else {
		log.Warn("JWT authentication disabled, tenants are taken from X-Tenant-ID")
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	securityConfig := middleware.DefaultSecurityConfig()
	if cfg.Swagger.Enabled {
		// Swagger UI relies on inline scripts
		securityConfig.CSPDirective = ""
	}

	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = tracerProvider.IsEnabled()

	var verifyLimiter *middleware.RateLimiter
	if cfg.HTTP.VerifyRateLimit > 0 {
		verifyLimiter = middleware.NewRateLimiter(cfg.HTTP.VerifyRateLimit, cfg.HTTP.VerifyRateWindow)
	}

	var httpMeter metric.Meter
	if meterProvider.IsEnabled() {
		httpMeter = meter
	}

	engine := router.NewEngine(router.Options{
		Logger:         log,
		JWTService:     jwtService,
		CORS:           corsConfig,
		Security:       securityConfig,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing:        tracingConfig,
		Meter:          httpMeter,
		Profiling:      cfg.Profiling.Enabled,
		VerifyLimiter:  verifyLimiter,
		Swagger:        cfg.Swagger.Enabled,
	}, router.Handlers{
		Session:   handler.NewSessionHandler(sessionService),
		Sale:      handler.NewSaleHandler(saleService),
		Promotion: handler.NewPromotionHandler(promotionService),
		Product:   handler.NewProductHandler(productService),
		Stock:     handler.NewStockHandler(stockService),
		Customer:  handler.NewCustomerHandler(customerService),
		System:    handler.NewSystemHandler(cfg.App.Name, version, sqlDB),
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// saleServiceConfig overlays configured POS tunables on the defaults
func saleServiceConfig(cfg config.POSConfig) posapp.SaleServiceConfig {
	out := posapp.DefaultSaleServiceConfig()
	if cfg.ReferencePrefix != "" {
		out.ReferencePrefix = cfg.ReferencePrefix
	}
	if cfg.ChangeRoundingUnit.IsPositive() {
		out.ChangeRoundingUnit = cfg.ChangeRoundingUnit
	}
	if cfg.ClaimTTL > 0 {
		out.ClaimTTL = cfg.ClaimTTL
	}
	return out
}

func runMigrations(sqlDB *sql.DB, log *zap.Logger) error {
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newReceiptStore returns the S3 archive, or nil when storage is disabled.
// Receipts are then rendered on demand only and never archived.
func newReceiptStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (posapp.ReceiptStore, error) {
	if !cfg.Enabled {
		log.Info("Receipt storage disabled, receipts are not archived")
		return nil, nil
	}
	store, err := storage.NewS3ReceiptStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func shutdownWithTimeout(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
