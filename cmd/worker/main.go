package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/servana/internal/app"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/servana/pkg/config"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

func main() {
	logCfg := observability.ProductionLogConfig()
	logger := observability.NewLogger(logCfg)

	logger.Info("starting servana worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.LocalMode {
		logger.Error("worker requires the full stack, unset SERVANA_LOCAL_MODE")
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		logCfg.Level = observability.LogLevelDebug
		logger = observability.NewLogger(logCfg)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	registry := eventbus.NewConsumerRegistry(logger)
	registry.Register(container.StatusSubscriber)

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:       cfg.RabbitMQURL,
		QueueName: cfg.WorkerQueueName,
		Logger:    logger,
	}, registry)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	if cfg.WorkerHealthAddr != "" {
		health := observability.NewHealthRegistry()
		health.Register("database", observability.DatabaseHealthChecker(container.DB.Ping))
		if container.RedisClient != nil {
			health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
				return container.RedisClient.Ping(ctx).Err()
			}))
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			overall := health.GetOverallHealth(checkCtx)
			w.Header().Set("Content-Type", "application/json")
			if overall.Status != observability.HealthStatusHealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			body, _ := overall.ToJSON()
			_, _ = w.Write(body)
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("consuming events", "queue", cfg.WorkerQueueName, "events", registry.GetAllEventTypes())

	// Blocks until the context is cancelled or the broker connection drops.
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
