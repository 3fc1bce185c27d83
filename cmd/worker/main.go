package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/iquiquesec/ciberseguridad/config"
	"github.com/iquiquesec/ciberseguridad/internal/features"
	"github.com/iquiquesec/ciberseguridad/internal/health"
	"github.com/iquiquesec/ciberseguridad/internal/logging"
	"github.com/iquiquesec/ciberseguridad/internal/metrics"
	"github.com/iquiquesec/ciberseguridad/internal/service"
	"github.com/iquiquesec/ciberseguridad/internal/storage"
	"github.com/iquiquesec/ciberseguridad/internal/storage/postgres"
	"github.com/iquiquesec/ciberseguridad/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.ReadWorkerConfig()
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{
		metrics.ServiceWorker,
		metrics.ServiceScans,
		metrics.ServiceFeatures,
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
		cfg.FeaturesPath,
		features.WithLogger(logger),
		features.WithObserver(metrics.ObserveFeatures),
	)
	if err != nil {
		logger.Fatalf("failed to open feature store: %v", err)
	}

	backendDB, err := postgres.NewPostgresBackend(ctx, cfg.DatabaseDSN, false)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if err := backendDB.Close(); err != nil {
			logger.Errorf("failed to close database: %v", err)
		}
	}()

	redisStorage, err := storage.NewRedisStorage(cfg.Redis())
	if err != nil {
		logger.Fatalf("failed to connect to redis: %v", err)
	}
	defer func() {
		if err := redisStorage.Close(); err != nil {
			logger.Errorf("failed to close redis: %v", err)
		}
	}()

	redisConnOpt, err := tasks.RedisConnOpt(cfg.Redis())
	if err != nil {
		logger.Fatalf("invalid redis settings: %v", err)
	}

	workerService, err := service.NewWorker(backendDB, redisStorage, store, metrics.NewScanMetrics(), logger)
	if err != nil {
		logger.Fatalf("failed to initialize worker service: %v", err)
	}

	healthServer := health.New(cfg.HealthPort)
	healthServer.AddCheck("postgres", backendDB.Ping)
	healthServer.AddCheck("redis", redisStorage.Ping)
	go func() {
		if err := healthServer.Start(ctx, logger); err != nil {
			logger.Errorf("health server failed: %v", err)
		}
	}()

	srv := asynq.NewServer(
		redisConnOpt,
		asynq.Config{
			Logger:      logger,
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				tasks.QUEUE_NAME: 10,
			},
		},
	)

	workerMetrics := metrics.NewWorkerMetrics()
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRansomwareScan,
		metrics.WithWorkerMetrics(workerService.HandleRansomwareScan, tasks.TypeRansomwareScan, workerMetrics))

	if err := srv.Start(mux); err != nil {
		logger.Fatalf("could not run server: %v", err)
	}
	<-ctx.Done()
	logger.Info("shutting down worker")
	srv.Shutdown()
}
