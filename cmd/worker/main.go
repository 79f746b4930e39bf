package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"newshub/internal/app"
	"newshub/internal/config"
	"newshub/internal/infra/worker"
	"newshub/internal/observability/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(config.Path(), logger)
	if err != nil {
		logger.Error("failed to initialize aggregator", slog.Any("error", err))
		os.Exit(1)
	}

	cfg := worker.LoadConfigFromEnv(logger)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("watchlist", len(cfg.Watchlist)),
		slog.Duration("run_timeout", cfg.RunTimeout),
		slog.Int("port", cfg.Port))

	metrics := worker.NewMetrics(prometheus.DefaultRegisterer)
	prober := worker.NewProber(components.Service, cfg, metrics, logger)

	server := worker.NewServer(fmt.Sprintf(":%d", cfg.Port), prometheus.DefaultGatherer, logger)
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := server.Start(ctx); err != nil {
			logger.Error("worker server failed", slog.Any("error", err))
			stop()
		}
	}()

	scheduler, err := worker.NewScheduler(cfg, prober, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	server.SetReady(true)
	logger.Info("worker started", slog.Time("next_run", scheduler.Next()))

	if cfg.RunOnStart {
		go prober.Run(ctx)
	}

	<-ctx.Done()
	logger.Info("shutting down worker...")
	server.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Warn("probe run did not finish before shutdown", slog.Any("error", err))
	}
	<-serverDone
	logger.Info("worker stopped")
}
