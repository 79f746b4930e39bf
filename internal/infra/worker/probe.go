package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"newshub/internal/usecase/aggregate"
)

// Aggregator is what the prober needs from aggregate.Service.
type Aggregator interface {
	Aggregate(ctx context.Context, category, location string) (*aggregate.Result, error)
	Providers() []string
}

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailure = "failure"
)

// RunStats summarizes one probe run.
type RunStats struct {
	Queries  int
	Articles int
	// Failures counts failed provider calls by provider name.
	Failures map[string]int
	// Rejected counts queries the aggregator refused (unknown category/location).
	Rejected int
	Status   string
	Duration time.Duration
}

// Prober runs the watchlist through the aggregator.
type Prober struct {
	svc       Aggregator
	watchlist []Watch
	timeout   time.Duration
	metrics   *Metrics
	logger    *slog.Logger
}

// NewProber creates a Prober. metrics may be nil.
func NewProber(svc Aggregator, cfg Config, metrics *Metrics, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		svc:       svc,
		watchlist: cfg.Watchlist,
		timeout:   cfg.RunTimeout,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run probes every watchlist entry sequentially. The aggregator already caps each
// query with its own deadline; timeout bounds the run as a whole.
func (p *Prober) Run(ctx context.Context) RunStats {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	providers := p.svc.Providers()
	stats := RunStats{Failures: make(map[string]int, len(providers))}
	emptyQueries := 0

	for _, w := range p.watchlist {
		if ctx.Err() != nil {
			p.logger.Warn("probe run cut short", slog.String("remaining_from", w.String()))
			break
		}

		res, err := p.svc.Aggregate(ctx, w.Category, w.Location)
		stats.Queries++
		if err != nil {
			stats.Rejected++
			level := slog.LevelError
			if errors.Is(err, aggregate.ErrInvalidQuery) {
				level = slog.LevelWarn
			}
			p.logger.Log(ctx, level, "probe query rejected",
				slog.String("query", w.String()),
				slog.String("error", err.Error()))
			continue
		}

		stats.Articles += len(res.Articles)
		if len(res.Articles) == 0 {
			emptyQueries++
		}
		for _, e := range res.Errors {
			stats.Failures[e.Source]++
		}
		p.logger.Info("probe query completed",
			slog.String("query", w.String()),
			slog.Int("articles", len(res.Articles)),
			slog.Int("failed_providers", len(res.Errors)))
	}

	stats.Duration = time.Since(start)
	stats.Status = runStatus(stats, emptyQueries)
	p.record(providers, stats)

	p.logger.Info("probe run completed",
		slog.String("status", stats.Status),
		slog.Int("queries", stats.Queries),
		slog.Int("articles", stats.Articles),
		slog.Any("failures", stats.Failures),
		slog.Duration("duration", stats.Duration))
	return stats
}

func runStatus(s RunStats, emptyQueries int) string {
	switch {
	case s.Queries == 0 || s.Rejected == s.Queries || s.Articles == 0:
		return StatusFailure
	case s.Rejected > 0 || emptyQueries > 0 || len(s.Failures) > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}

func (p *Prober) record(providers []string, s RunStats) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunsTotal.WithLabelValues(s.Status).Inc()
	p.metrics.RunDuration.Observe(s.Duration.Seconds())
	if s.Status == StatusSuccess {
		p.metrics.LastSuccess.SetToCurrentTime()
	}
	answered := s.Queries - s.Rejected
	for _, name := range providers {
		up := 0.0
		if answered > 0 && s.Failures[name] == 0 {
			up = 1
		}
		p.metrics.ProviderUp.WithLabelValues(name).Set(up)
	}
}
