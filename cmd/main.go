package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"popup-storybook/server/internal/config"
	"popup-storybook/server/internal/engine"
	"popup-storybook/server/internal/generators"
	"popup-storybook/server/internal/logging"
	"popup-storybook/server/internal/storage"
	"popup-storybook/server/internal/storybook"
	"popup-storybook/server/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the yaml config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := storage.NewStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()
	logger.Info("Database ready", zap.String("driver", store.Driver()))

	// status snapshots are cached only when redis is reachable
	var cache storybook.SnapshotCache
	if cfg.Database.Redis.Enabled {
		redisStore, err := storage.NewRedisStore(cfg.Database.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, status cache disabled", zap.String("addr", cfg.Database.Redis.Addr()), zap.Error(err))
		} else {
			defer redisStore.Close()
			cache = redisStore
			logger.Info("Redis connected", zap.String("addr", cfg.Database.Redis.Addr()))
		}
	}

	imageClient := &http.Client{Timeout: cfg.Generation.HTTPTimeout}
	poller := generators.Poller{Interval: cfg.Generation.PollInterval, MaxAttempts: cfg.Generation.MaxPollAttempts}
	registry := generators.NewRegistry(logger.Named("generators"),
		generators.DefaultProviders(imageClient, poller, logger.Named("gemini"))...)

	storyEngine := engine.NewOpenAIStoryEngine(&http.Client{Timeout: cfg.Generation.LLMTimeout}, logger.Named("engine"))

	service := storybook.NewService(store, storyEngine, registry, cache, logger, storybook.Options{
		ImageSize:      cfg.Generation.ImageSize,
		StatusCacheTTL: cfg.Generation.StatusCacheTTL,
	})

	handlers := web.NewHandlers(store, service, registry, cfg, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      web.NewRouter(cfg, handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr), zap.Strings("providers", registry.Names()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down", zap.Int64("active_jobs", service.ActiveJobs()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := service.Shutdown(ctx); err != nil {
		logger.Warn("Illustration jobs did not stop in time", zap.Error(err))
	}

	logger.Info("Server stopped")
}
