// Package app wires configuration, provider adapters and the aggregator together
// for the binaries under cmd/.
package app

import (
	"fmt"
	"log/slog"

	"newshub/internal/config"
	"newshub/internal/infra/httpclient"
	"newshub/internal/infra/provider"
	"newshub/internal/usecase/aggregate"
)

// Components are the long-lived pieces shared by the API and the worker.
type Components struct {
	File       *config.File
	Aggregator config.AggregatorConfig
	Service    *aggregate.Service
}

// Build loads the provider file at path and the aggregator settings from the
// environment, then constructs every enabled adapter and the aggregation service.
func Build(path string, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	aggCfg, err := config.LoadAggregatorConfig()
	if err != nil {
		return nil, err
	}

	factory := provider.NewFactory(logger)
	factory.Timeout = config.GetEnvDuration("HTTP_CLIENT_TIMEOUT", httpclient.DefaultTimeout)

	providers, err := factory.BuildAll(file.Providers)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	svc := aggregate.NewService(file.Catalog, providers, aggCfg, aggregate.WithLogger(logger))

	logger.Info("aggregator ready",
		slog.String("config", path),
		slog.Any("providers", svc.Providers()),
		slog.Int("categories", len(file.Catalog.Categories)),
		slog.Int("locations", len(file.Catalog.Locations)),
		slog.Duration("timeout", aggCfg.Timeout),
		slog.Int("max_retries", aggCfg.MaxRetries),
		slog.Bool("breakers", aggCfg.BreakerEnabled))

	return &Components{File: file, Aggregator: aggCfg, Service: svc}, nil
}
