package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/infra/httpclient"
	"newshub/internal/observability/logging"
	"newshub/internal/observability/metrics"
	"newshub/internal/observability/tracing"
	"newshub/internal/resilience/circuitbreaker"
	"newshub/internal/resilience/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Service runs aggregations over a fixed, ordered set of providers.
// It is safe for concurrent use; the only state shared between calls is the
// per-provider circuit breakers.
type Service struct {
	catalog   entity.Catalog
	providers []Provider
	breakers  []*circuitbreaker.CircuitBreaker
	cfg       config.AggregatorConfig
	pageSize  int

	logger *slog.Logger
	tracer trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the base logger. Request-scoped loggers from ctx still take precedence.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracer replaces the global tracer, mostly for tests.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithPageSize sets the per-provider page size passed in every Query.
// Zero leaves the choice to each adapter.
func WithPageSize(n int) Option {
	return func(s *Service) {
		s.pageSize = n
	}
}

// NewService builds a Service for providers, kept in the given order.
// A non-positive Timeout and negative MaxRetries fall back to the defaults.
func NewService(catalog entity.Catalog, providers []Provider, cfg config.AggregatorConfig, opts ...Option) *Service {
	def := config.DefaultAggregatorConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}

	s := &Service{
		catalog:   catalog,
		providers: providers,
		cfg:       cfg,
		logger:    slog.Default(),
		tracer:    tracing.GetTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.BreakerEnabled {
		s.breakers = make([]*circuitbreaker.CircuitBreaker, len(providers))
		for i, p := range providers {
			bcfg := circuitbreaker.ProviderConfig(p.Name(), httpclient.IsTransient)
			bcfg.Logger = s.logger
			s.breakers[i] = circuitbreaker.New(bcfg)
		}
	}
	return s
}

// Providers returns the provider names in aggregation order.
func (s *Service) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// BreakerStates returns each provider's circuit breaker state ("closed", "open",
// "half-open"), or nil when breakers are disabled.
func (s *Service) BreakerStates() map[string]string {
	if s.breakers == nil {
		return nil
	}
	states := make(map[string]string, len(s.breakers))
	for i, cb := range s.breakers {
		states[s.providers[i].Name()] = cb.State().String()
	}
	return states
}

// Aggregate queries every provider concurrently and merges the results.
//
// Only caller errors are returned: ErrInvalidQuery for a category or location outside
// the catalog and ErrNoProviders. Provider failures are reported in Result.Errors.
func (s *Service) Aggregate(ctx context.Context, category, location string) (*Result, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	location = strings.ToLower(strings.TrimSpace(location))

	if err := s.catalog.ValidateQuery(category, location); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if len(s.providers) == 0 {
		return nil, ErrNoProviders
	}

	logger := logging.WithRequestID(ctx, s.logger).With(
		slog.String("category", category),
		slog.String("location", location))

	ctx, span := s.tracer.Start(ctx, "aggregate.Aggregate",
		trace.WithAttributes(
			attribute.String("news.category", category),
			attribute.String("news.location", location),
			attribute.Int("news.providers", len(s.providers)),
		))
	defer span.End()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	q := Query{Category: category, Location: location, PageSize: s.pageSize}
	outcomes := make([]outcome, len(s.providers))

	var g errgroup.Group
	for i := range s.providers {
		g.Go(func() error {
			outcomes[i] = s.callProvider(ctx, i, q, logger)
			return nil
		})
	}
	_ = g.Wait()

	articles, stats := merge(outcomes, logger)

	errs := make([]*entity.SourceError, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}

	result := &Result{Articles: articles, Errors: errs, providers: len(s.providers)}

	metrics.RecordAggregation(len(articles), stats.duplicates, result.AllFailed())
	span.SetAttributes(
		attribute.Int("news.articles", len(articles)),
		attribute.Int("news.errors", len(errs)),
		attribute.Int("news.duplicates", stats.duplicates),
	)
	if result.AllFailed() {
		span.SetStatus(codes.Error, "all providers failed")
	}

	logger.Info("aggregation completed",
		slog.Int("articles", len(articles)),
		slog.Int("failed_providers", len(errs)),
		slog.Int("duplicates", stats.duplicates),
		slog.Int("invalid", stats.invalid),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// callProvider runs one provider to completion: breaker, retries and the shared deadline.
func (s *Service) callProvider(ctx context.Context, i int, q Query, logger *slog.Logger) outcome {
	p := s.providers[i]
	name := p.Name()
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "provider.FetchArticles",
		trace.WithAttributes(attribute.String("news.provider", name)))
	defer span.End()

	var articles []entity.Article
	attempt := func(ctx context.Context) error {
		run := func() error {
			a, err := fetchBounded(ctx, p, q, logger)
			if err != nil {
				return err
			}
			articles = a
			return nil
		}

		var err error
		if s.breakers != nil {
			err = s.breakers[i].Execute(run)
		} else {
			err = run()
		}
		if err != nil {
			return httpclient.Classify(name, err)
		}
		return nil
	}

	rcfg := retry.ProviderConfig()
	rcfg.MaxAttempts = s.cfg.MaxRetries + 1
	if s.cfg.RetryBackoff > 0 {
		rcfg.InitialDelay = s.cfg.RetryBackoff
	}
	rcfg.Retryable = httpclient.IsTransient
	rcfg.Logger = logger.With(slog.String("provider", name))
	rcfg.OnRetry = func(int, error) { metrics.RecordProviderRetry(name) }

	err := retry.WithBackoff(ctx, rcfg, attempt)
	if err == nil {
		metrics.RecordProviderCall(name, metrics.OutcomeSuccess, time.Since(start))
		span.SetAttributes(attribute.Int("news.articles", len(articles)))
		if articles == nil {
			articles = []entity.Article{}
		}
		return outcome{articles: articles}
	}

	se := s.sourceError(ctx, name, err)
	metrics.RecordProviderCall(name, se.Code, time.Since(start))
	span.RecordError(se)
	span.SetStatus(codes.Error, se.Code)
	logger.Warn("provider failed",
		slog.String("provider", name),
		slog.String("code", se.Code),
		slog.Bool("retryable", se.Retryable),
		slog.String("message", se.Message))

	return outcome{err: se}
}

// sourceError turns the final error of a provider into its reported SourceError.
// Running out of aggregation time always reads as NO_RESPONSE, whatever the last
// attempt returned.
func (s *Service) sourceError(ctx context.Context, name string, err error) *entity.SourceError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return entity.NewSourceError(name, entity.CodeNoResponse,
			fmt.Sprintf("no response within %s: %v", s.cfg.Timeout, err), true, err)
	}
	return httpclient.Classify(name, err)
}

// fetchBounded returns when the provider does or when ctx ends, whichever is first.
// A provider that ignores ctx keeps its goroutine until it returns; the buffered
// channel lets it exit without a reader. A panicking provider becomes a
// non-retryable PROVIDER_ERROR for that provider only.
func fetchBounded(ctx context.Context, p Provider, q Query, logger *slog.Logger) ([]entity.Article, error) {
	type reply struct {
		articles []entity.Article
		err      error
	}

	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("provider panicked",
					slog.String("provider", p.Name()),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
				ch <- reply{err: entity.NewSourceError(p.Name(), entity.CodeProviderError,
					fmt.Sprintf("provider panicked: %v", r), false, nil)}
			}
		}()
		a, err := p.FetchArticles(ctx, q)
		ch <- reply{articles: a, err: err}
	}()

	select {
	case r := <-ch:
		return r.articles, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
