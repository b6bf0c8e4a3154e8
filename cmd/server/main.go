package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/application/reconcile"
	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/shared"
	"github.com/jetqor/backend/internal/infrastructure/cache"
	"github.com/jetqor/backend/internal/infrastructure/config"
	"github.com/jetqor/backend/internal/infrastructure/kaspi"
	"github.com/jetqor/backend/internal/infrastructure/logger"
	"github.com/jetqor/backend/internal/infrastructure/persistence"
	"github.com/jetqor/backend/internal/infrastructure/scheduler"
	"github.com/jetqor/backend/internal/interfaces/http/handler"
	"github.com/jetqor/backend/internal/interfaces/http/router"
)

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting Jetqor Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema migrated")
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	lineItemRepo := persistence.NewGormLineItemRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	merchantRepo := persistence.NewGormMerchantRepository(db.DB)
	restockRepo := persistence.NewGormRestockRepository(db.DB)

	// Initialize marketplace client
	kaspiClient, err := kaspi.NewClient(&kaspi.Config{
		BaseURL:        cfg.Kaspi.BaseURL,
		TimeoutSeconds: cfg.Kaspi.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create marketplace client", zap.Error(err))
	}

	// Initialize address resolver from config
	overrides := make([]fulfillment.OverrideRule, 0, len(cfg.Warehouse.Overrides))
	for _, rule := range cfg.Warehouse.Overrides {
		overrides = append(overrides, fulfillment.OverrideRule{
			Tokens:      rule.Tokens,
			WarehouseID: rule.WarehouseID,
		})
	}
	resolver := fulfillment.NewResolver(fulfillment.ResolverConfig{
		Overrides: overrides,
		StopWords: cfg.Warehouse.StopWords,
		MinScore:  cfg.Warehouse.MinScore,
	}, warehouseRepo, log)

	// Initialize application services
	reconcileService := reconcile.NewService(
		kaspiClient,
		orderRepo,
		lineItemRepo,
		productRepo,
		merchantRepo,
		restockRepo,
		resolver,
		reconcile.Config{
			Location:              cfg.Sync.Location(),
			PageSize:              cfg.Sync.PageSize,
			IngestLookbackHours:   cfg.Sync.IngestLookbackHours,
			ReconcileLookbackDays: cfg.Sync.ReconcileLookbackDays,
			RestockCellID:         cfg.Sync.RestockCellID,
			LeaseTTL:              cfg.Sync.LeaseTTL,
		},
		log,
	)
	waybillResolver := reconcile.NewWaybillResolver(kaspiClient, orderRepo, merchantRepo, log)

	// The run lease serializes reconciliation passes across instances
	var lease shared.RunLease
	if cfg.Redis.Enabled {
		redisLease, err := cache.NewRedisRunLease(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisLease.Close()
		}()
		lease = redisLease
		log.Info("Using Redis run lease")
	} else {
		lease = cache.NewInMemoryRunLease()
		log.Info("Using in-memory run lease")
	}
	reconcileService.SetRunLease(lease)

	// Start the reconciliation loop
	var trigger *scheduler.ReconcileTrigger
	if cfg.Sync.Enabled {
		trigger = scheduler.NewReconcileTrigger(
			scheduler.ReconcileTriggerConfig{
				Interval: cfg.Sync.Interval,
				LeaseTTL: cfg.Sync.LeaseTTL,
			},
			reconcileService,
			lease,
			log,
		)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reconcile trigger", zap.Error(err))
		}
	} else {
		log.Info("Background reconciliation disabled")
	}

	// Setup HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	r := router.NewRouter(engine)
	r.Register(handler.NewKaspiHandler(reconcileService, waybillResolver, orderRepo, log))
	r.Register(handler.NewSystemHandler(db))
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if trigger != nil {
		if err := trigger.Stop(ctx); err != nil {
			log.Error("Reconcile trigger forced to stop", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
