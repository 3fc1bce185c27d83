package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/iquiquesec/ciberseguridad/config"
	"github.com/iquiquesec/ciberseguridad/internal/api"
	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/logging"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
	"github.com/iquiquesec/ciberseguridad/internal/protection"
	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/storage/postgres"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.ReadServerConfig()
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{
		metrics.ServiceHTTP,
		metrics.ServiceFeatures,
		metrics.ServiceScans,
	}, logger)
	defer func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Errorf("failed to stop metrics server: %v", err)
		}
	}()

	store, err := features.NewStore(
		cfg.Features.Path,
		features.WithLogger(logger),
		features.WithObserver(metrics.ObserveFeatures),
	)
	if err != nil {
		logger.Fatalf("failed to open feature store: %v", err)
	}
	// publish the initial state and create the file if it is missing
	store.GetAll(ctx)

	db, err := postgres.NewPostgresBackend(ctx, cfg.Database.DSN, true)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("failed to close database: %v", err)
		}
	}()

	if cfg.PolicyCatalog != "" {
		inventory, err := service.NewInventoryService(db, logger)
		if err != nil {
			logger.Fatalf("failed to initialize inventory service: %v", err)
		}
		if err := inventory.SeedPolicies(ctx, cfg.PolicyCatalog); err != nil {
			logger.Fatalf("failed to seed security policies: %v", err)
		}
	}

	deps := api.Deps{
		Features:    store,
		DB:          db,
		Registry:    protection.NewRegistry(protection.NewEndpointService(nil)),
		HTTPMetrics: metrics.NewHTTPMetrics(),
		ScanMetrics: metrics.NewScanMetrics(),
	}

	if cfg.Redis.Enabled() {
		redisStorage, err := storage.NewRedisStorage(cfg.Redis)
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer func() {
			if err := redisStorage.Close(); err != nil {
				logger.Errorf("failed to close redis: %v", err)
			}
		}()

		redisConnOpt, err := tasks.RedisConnOpt(cfg.Redis)
		if err != nil {
			logger.Fatalf("invalid redis settings: %v", err)
		}
		client := asynq.NewClient(redisConnOpt)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Errorf("fail to close asynq client: %v", err)
			}
		}()
		inspector := asynq.NewInspector(redisConnOpt)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Errorf("fail to close asynq inspector: %v", err)
			}
		}()

		deps.Client = client
		deps.Locker = redisStorage
		deps.Inspector = inspector
	} else {
		logger.Warn("redis is not configured, background scans are disabled")
	}

	blocks, err := storage.NewBlockStorage(cfg.BlockStorage)
	if err != nil {
		logger.Fatalf("failed to initialize block storage: %v", err)
	}
	deps.Blocks = blocks

	server, err := api.NewServer(*cfg, deps, logger)
	if err != nil {
		logger.Fatalf("failed to create api server: %v", err)
	}
	if err := server.StartServer(ctx); err != nil {
		logger.WithError(err).Error("api server stopped")
		os.Exit(1)
	}
	logger.Info("server exited")
}
