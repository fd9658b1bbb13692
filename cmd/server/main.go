package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accessapp "github.com/facturacion/backend/internal/application/access"
	catalogapp "github.com/facturacion/backend/internal/application/catalog"
	organizationapp "github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/auth"
	"github.com/facturacion/backend/internal/infrastructure/cache"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/facturacion/backend/internal/infrastructure/event"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"github.com/facturacion/backend/internal/infrastructure/messaging"
	"github.com/facturacion/backend/internal/infrastructure/migration"
	"github.com/facturacion/backend/internal/infrastructure/persistence"
	"github.com/facturacion/backend/internal/infrastructure/telemetry"
	"github.com/facturacion/backend/internal/interfaces/http/handler"
	"github.com/facturacion/backend/internal/interfaces/http/middleware"
	"github.com/facturacion/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var (
		migrate        bool
		migrationsPath string
	)
	flag.BoolVar(&migrate, "migrate", os.Getenv("FISCAL_AUTO_MIGRATE") == "true", "Apply pending migrations before serving")
	flag.StringVar(&migrationsPath, "migrations", "migrations", "Path to migrations directory")
	flag.Parse()

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

	log.Info("Starting fiscal backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)

	exportLevel, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		exportLevel = zapcore.InfoLevel
	}
	log = telemetry.BridgeLogger(log, cfg.Telemetry.ServiceName, loggerProvider, exportLevel)

	if migrate {
		if err := migration.ApplyAll(cfg.Database.DSN(), migrationsPath, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowQueryThresh,
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	var meter metric.Meter
	var fiscalMetrics *telemetry.FiscalMetrics
	if meterProvider.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Database.SlowQueryThresh,
		}, log); err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
		}
		meter = meterProvider.Meter("fiscal-backend")
		if fiscalMetrics, err = telemetry.NewFiscalMetrics(meter); err != nil {
			log.Warn("Fiscal metrics disabled", zap.Error(err))
			fiscalMetrics = nil
		}
	}

	histograms, redisClient, err := cache.NewHistogramCacheFactory(cfg.Redis, cfg.Catalog,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize histogram cache", zap.Error(err))
	}
	defer cache.StopHistogramCache(histograms)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
	}

	decisions := cache.NewDecisionCache(cfg.Access.DecisionCacheTTL)
	defer decisions.Stop()

	channelRepo := persistence.NewGormChannelRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	registerRepo := persistence.NewGormRegisterRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	referenceRepo := persistence.NewGormReferenceRepository(db.DB)
	overrideRepo := persistence.NewGormOverrideRepository(db.DB)

	guard := accessapp.NewMembershipGuard(membershipRepo, decisions, log)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	eventBus.Subscribe(guard)

	if cfg.Messaging.Enabled {
		publisher, err := messaging.NewAMQPPublisher(cfg.Messaging, log)
		if err != nil {
			log.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Error closing message publisher", zap.Error(err))
			}
		}()
		integration := event.NewAsyncHandler(publisher, event.AsyncHandlerConfig{
			QueueSize:      cfg.Messaging.QueueSize,
			HandlerTimeout: cfg.Messaging.PublishTimeout,
		}, log)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := integration.Close(closeCtx); err != nil {
				log.Error("Error draining integration events", zap.Error(err))
			}
		}()
		eventBus.Subscribe(integration)
		log.Info("Integration events enabled", zap.String("exchange", cfg.Messaging.Exchange))
	}

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	repos := organizationapp.Repositories{
		Channels:   channelRepo,
		Activities: activityRepo,
		Branches:   branchRepo,
		Registers:  registerRepo,
		Sequences:  sequenceRepo,
	}

	ledgerOpts := []organizationapp.LedgerOption{
		organizationapp.WithReadRetry(retryPolicy(cfg.Ledger.ReadRetry)),
	}
	resolverOpts := []catalogapp.ResolverOption{
		catalogapp.WithReadRetry(retryPolicy(cfg.Catalog.ReadRetry)),
		catalogapp.WithEventPublisher(eventBus),
	}
	if fiscalMetrics != nil {
		ledgerOpts = append(ledgerOpts, organizationapp.WithLedgerMetrics(fiscalMetrics))
		resolverOpts = append(resolverOpts, catalogapp.WithCatalogMetrics(fiscalMetrics))
	}

	hierarchyService := organizationapp.NewHierarchyService(repos, guard, eventBus, log)
	ledgerService := organizationapp.NewLedgerService(repos, guard, eventBus, log, ledgerOpts...)
	resolverService := catalogapp.NewResolverService(referenceRepo, overrideRepo, histograms, guard, log, resolverOpts...)
	membershipService := accessapp.NewMembershipService(membershipRepo, guard, eventBus, log)

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:     log,
		JWTService: auth.NewJWTService(cfg.JWT),
		HTTP:       cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter: meter,
		Handlers: router.Handlers{
			System:     handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion, checks),
			Channel:    handler.NewChannelHandler(hierarchyService),
			Membership: handler.NewMembershipHandler(membershipService),
			Branch:     handler.NewBranchHandler(hierarchyService),
			Ledger:     handler.NewLedgerHandler(ledgerService),
			Catalog:    handler.NewCatalogHandler(resolverService),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

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
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func retryPolicy(c config.RetryConfig) shared.RetryPolicy {
	return shared.RetryPolicy{Attempts: c.Attempts, Backoff: c.Backoff}
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
