package provider

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newshub/internal/config"
	"newshub/internal/infra/httpclient"
	"newshub/internal/usecase/aggregate"
)

// Builder creates an adapter for one provider entry.
type Builder func(cfg config.ProviderConfig, client Doer, logger *slog.Logger) aggregate.Provider

// Factory creates adapters from configuration, keyed by provider type.
// Every adapter gets its own HTTP client so rate limits stay per provider.
type Factory struct {
	builders map[string]Builder

	// Timeout is the default per-request timeout for providers without one.
	Timeout time.Duration
	// Transport, if set, is used by every client (tests point it at httptest).
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewFactory returns a factory knowing the built-in provider types.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{
		builders: make(map[string]Builder),
		Timeout:  httpclient.DefaultTimeout,
		Logger:   logger,
	}
	f.Register(config.TypeNewsAPI, func(c config.ProviderConfig, d Doer, l *slog.Logger) aggregate.Provider {
		return NewNewsAPI(c, d, l)
	})
	f.Register(config.TypeGNews, func(c config.ProviderConfig, d Doer, l *slog.Logger) aggregate.Provider {
		return NewGNews(c, d, l)
	})
	f.Register(config.TypeGuardian, func(c config.ProviderConfig, d Doer, l *slog.Logger) aggregate.Provider {
		return NewGuardian(c, d, l)
	})
	f.Register(config.TypeRSS, func(c config.ProviderConfig, d Doer, l *slog.Logger) aggregate.Provider {
		return NewRSS(c, d, l)
	})
	return f
}

// Register associates a builder with a provider type, replacing any previous one.
func (f *Factory) Register(typ string, b Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || b == nil {
		return
	}
	f.builders[typ] = b
}

// Build creates the adapter for cfg.
func (f *Factory) Build(cfg config.ProviderConfig) (aggregate.Provider, error) {
	b, ok := f.builders[strings.ToLower(cfg.Type)]
	if !ok {
		return nil, fmt.Errorf("provider %q: no adapter for type %q", cfg.Name, cfg.Type)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = f.Timeout
	}
	client := httpclient.New(httpclient.Options{
		Timeout:   timeout,
		Limiter:   httpclient.NewLimiter(cfg.RateLimit, cfg.Burst),
		Transport: f.Transport,
		Logger:    f.Logger,
	})
	return b(cfg, client, f.Logger), nil
}

// BuildAll creates adapters for every enabled entry, preserving order.
func (f *Factory) BuildAll(cfgs []config.ProviderConfig) ([]aggregate.Provider, error) {
	providers := make([]aggregate.Provider, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		p, err := f.Build(cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
