package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/mediacache/internal/api"
	"github.com/hszk-dev/mediacache/internal/api/handler"
	"github.com/hszk-dev/mediacache/internal/config"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
	"github.com/hszk-dev/mediacache/internal/infrastructure/cache"
	"github.com/hszk-dev/mediacache/internal/infrastructure/metrics"
	"github.com/hszk-dev/mediacache/internal/infrastructure/postgres"
	"github.com/hszk-dev/mediacache/internal/infrastructure/queue"
	"github.com/hszk-dev/mediacache/internal/infrastructure/storage"
	"github.com/hszk-dev/mediacache/internal/usecase"
	"github.com/hszk-dev/mediacache/internal/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	checks := make(map[string]handler.Pinger)

	// Redis is the only cache backend. A dead Redis degrades streaming to
	// storage reads, so startup only warns.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	mediaCache := cache.NewRedisMediaCache(redisClient, logger)
	if err := mediaCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, serving without cache", slog.String("error", err.Error()))
	} else {
		logger.Info("connected to Redis")
	}
	checks["cache"] = mediaCache

	mediaStorage, err := newStorage(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}

	workers := cfg.Media.ValidationWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := validator.NewPool(validator.MimetypeSniffer{}, validator.Config{
		Workers:   workers,
		QueueSize: cfg.Media.ValidationQueue,
		MaxSize:   cfg.Server.MaxUploadSize,
	})
	defer pool.Close()

	var events repository.MessageQueue
	if cfg.Media.EventsEnabled {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()), logger)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		events = queueClient
		logger.Info("connected to RabbitMQ")
	}

	var catalogSvc usecase.CatalogService
	if cfg.Media.CatalogEnabled {
		pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pgClient.Close()
		if err := pgClient.ApplySchema(ctx); err != nil {
			return err
		}
		catalogSvc = usecase.NewCatalogService(postgres.NewMediaRepository(pgClient.Pool()))
		checks["postgres"] = pgClient
		logger.Info("connected to PostgreSQL")
	}

	mediaSvc := usecase.NewMediaService(
		pool,
		mediaStorage,
		mediaCache,
		events,
		metrics.NewRecorder(logger),
		usecase.MediaServiceConfig{
			CacheTTL:          cfg.Media.CacheTTL,
			MaxUploadSize:     cfg.Server.MaxUploadSize,
			MaxCacheableSize:  cfg.Media.MaxCacheableSize,
			BackgroundTimeout: cfg.Media.BackgroundTimeout,
		},
	)

	r := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Media:          handler.NewMediaHandler(mediaSvc, catalogSvc, cfg.Server.MaxUploadSize, logger),
		Health:         handler.NewHealth(checks),
		Metrics:        promhttp.Handler(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		MetadataRoutes: catalogSvc != nil,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("storage", cfg.Media.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Cache writes and event publishes started by finished requests.
	if err := mediaSvc.Drain(shutdownCtx); err != nil {
		logger.Warn("background tasks still running at shutdown", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger, checks map[string]handler.Pinger) (repository.MediaStorage, error) {
	if cfg.Media.StorageBackend == config.StorageBackendLocal {
		local, err := storage.NewLocalStorage(cfg.Media.LocalDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
		}
		logger.Info("using local storage", slog.String("dir", local.Dir()))
		return local, nil
	}

	client, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:     cfg.MinIO.Endpoint,
		AccessKey:    cfg.MinIO.AccessKey,
		SecretKey:    cfg.MinIO.SecretKey,
		Bucket:       cfg.MinIO.Bucket,
		UseSSL:       cfg.MinIO.UseSSL,
		CreateBucket: cfg.MinIO.CreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	checks["storage"] = client
	logger.Info("connected to MinIO", slog.String("bucket", client.Bucket()))
	return client, nil
}
