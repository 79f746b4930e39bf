package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newshub/internal/app"
	"newshub/internal/config"
	hhttp "newshub/internal/handler/http"
	harticle "newshub/internal/handler/http/article"
	"newshub/internal/handler/http/requestid"
	"newshub/internal/observability/logging"
	"newshub/internal/observability/tracing"
)

func main() {
	loadDotEnv()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	components, err := app.Build(config.Path(), logger)
	if err != nil {
		logger.Error("failed to initialize aggregator", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing := tracing.Setup(config.GetEnvFloat("TRACE_SAMPLE_RATIO", 0.1))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	version := config.GetEnvString("VERSION", "dev")
	handler := setupHandler(logger, components, version)

	runServer(logger, handler, version)
}

// loadDotEnv reads .env when present; real environment variables win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("error", err))
	}
}

// setupHandler registers routes and wraps them in the middleware chain.
func setupHandler(logger *slog.Logger, c *app.Components, version string) http.Handler {
	mux := http.NewServeMux()

	defaultCategory := config.GetEnvString("DEFAULT_CATEGORY", "")
	if defaultCategory == "" && len(c.File.Catalog.Categories) > 0 {
		defaultCategory = c.File.Catalog.Categories[0]
	}
	harticle.Register(mux, c.Service, defaultCategory, logger)

	mux.Handle("GET /health", &hhttp.HealthHandler{Providers: c.Service, Version: version, Logger: logger})
	mux.Handle("GET /health/live", hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	// Metrics wraps the mux directly so the route pattern is visible to it.
	return hhttp.Chain(hhttp.MetricsMiddleware(mux),
		hhttp.Recover(logger),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
	)
}

// newServer builds the API server. Request contexts inherit values from ctx but
// not its cancellation, so a shutdown signal lets in-flight aggregations finish
// while srv.Shutdown drains them.
func newServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// aggregation deadline plus encoding headroom
		WriteTimeout: config.GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:  120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
}

// runServer serves until SIGINT/SIGTERM, then drains in-flight requests.
func runServer(logger *slog.Logger, handler http.Handler, version string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := config.GetEnvString("HTTP_ADDR", ":8080")
	srv := newServer(ctx, addr, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
