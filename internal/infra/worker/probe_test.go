package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// idle keep-alive connections of http.DefaultClient
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type scriptedProvider struct {
	name string
	// failFor lists categories this provider fails on.
	failFor map[string]bool
}

func (p scriptedProvider) Name() string { return p.name }

func (p scriptedProvider) FetchArticles(_ context.Context, q aggregate.Query) ([]entity.Article, error) {
	if p.failFor[q.Category] {
		return nil, entity.NewSourceError(p.name, "HTTP_500", "HTTP 500 Internal Server Error", false, nil)
	}
	url := fmt.Sprintf("https://%s.example.com/%s", p.name, q.Category)
	return []entity.Article{{
		ID:          entity.NewArticleID(p.name, url),
		Title:       q.Category + " headline",
		URL:         url,
		Source:      p.name,
		PublishedAt: time.Now().Add(-time.Hour).UTC(),
		Category:    q.Category,
	}}, nil
}

func newTestService(providers ...aggregate.Provider) *aggregate.Service {
	catalog := entity.Catalog{
		Categories: []string{"technology", "sports"},
		Locations:  []string{"us"},
	}
	return aggregate.NewService(catalog, providers, config.AggregatorConfig{Timeout: time.Second},
		aggregate.WithLogger(slog.New(slog.DiscardHandler)))
}

func TestProber_RunSuccess(t *testing.T) {
	svc := newTestService(scriptedProvider{name: "alpha"}, scriptedProvider{name: "beta"})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	cfg := DefaultConfig()
	cfg.Watchlist = []Watch{{"technology", "us"}, {"sports", ""}}
	stats := NewProber(svc, cfg, m, slog.New(slog.DiscardHandler)).Run(context.Background())

	assert.Equal(t, StatusSuccess, stats.Status)
	assert.Equal(t, 2, stats.Queries)
	assert.Equal(t, 4, stats.Articles)
	assert.Empty(t, stats.Failures)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderUp.WithLabelValues("alpha")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderUp.WithLabelValues("beta")))
	assert.Positive(t, testutil.ToFloat64(m.LastSuccess))
}

func TestProber_RunPartial(t *testing.T) {
	svc := newTestService(
		scriptedProvider{name: "alpha"},
		scriptedProvider{name: "beta", failFor: map[string]bool{"sports": true}},
	)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	cfg := DefaultConfig()
	cfg.Watchlist = []Watch{{"technology", ""}, {"sports", ""}, {"cooking", ""}}
	stats := NewProber(svc, cfg, m, slog.New(slog.DiscardHandler)).Run(context.Background())

	assert.Equal(t, StatusPartial, stats.Status)
	assert.Equal(t, 3, stats.Queries)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, map[string]int{"beta": 1}, stats.Failures)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderUp.WithLabelValues("alpha")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ProviderUp.WithLabelValues("beta")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LastSuccess))
}

func TestProber_RunFailure(t *testing.T) {
	all := map[string]bool{"technology": true}
	svc := newTestService(scriptedProvider{name: "alpha", failFor: all}, scriptedProvider{name: "beta", failFor: all})

	cfg := DefaultConfig()
	cfg.Watchlist = []Watch{{"technology", ""}}
	stats := NewProber(svc, cfg, nil, slog.New(slog.DiscardHandler)).Run(context.Background())

	assert.Equal(t, StatusFailure, stats.Status)
	assert.Equal(t, map[string]int{"alpha": 1, "beta": 1}, stats.Failures)
}

func TestProber_StopsWhenContextEnds(t *testing.T) {
	svc := newTestService(scriptedProvider{name: "alpha"})
	cfg := DefaultConfig()
	cfg.Watchlist = []Watch{{"technology", ""}, {"sports", ""}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := NewProber(svc, cfg, nil, slog.New(slog.DiscardHandler)).Run(ctx)

	assert.Zero(t, stats.Queries)
	assert.Equal(t, StatusFailure, stats.Status)
}

type countingAggregator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingAggregator) Aggregate(context.Context, string, string) (*aggregate.Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &aggregate.Result{}, nil
}

func (c *countingAggregator) Providers() []string { return nil }

func (c *countingAggregator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestScheduler(t *testing.T) {
	agg := &countingAggregator{}
	cfg := DefaultConfig()
	// cron rounds sub-second intervals up to one second
	cfg.CronSchedule = "@every 1s"

	s, err := NewScheduler(cfg, NewProber(agg, cfg, nil, slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Next().IsZero())
	assert.Eventually(t, func() bool { return agg.count() >= 1 }, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestNewScheduler_Invalid(t *testing.T) {
	prober := NewProber(&countingAggregator{}, DefaultConfig(), nil, nil)

	cfg := DefaultConfig()
	cfg.CronSchedule = "61 * * * *"
	_, err := NewScheduler(cfg, prober, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Timezone = "Atlantis/Central"
	_, err = NewScheduler(cfg, prober, nil)
	assert.Error(t, err)
}
