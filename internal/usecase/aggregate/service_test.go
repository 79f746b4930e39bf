package aggregate_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/infra/provider"
	"newshub/internal/observability/metrics"
	"newshub/internal/usecase/aggregate"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections of the httptest-backed adapter test
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type fakeProvider struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, call int, q aggregate.Query) ([]entity.Article, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FetchArticles(ctx context.Context, q aggregate.Query) ([]entity.Article, error) {
	n := int(f.calls.Add(1))
	return f.fn(ctx, n, q)
}

func returning(name string, articles ...entity.Article) *fakeProvider {
	return &fakeProvider{name: name, fn: func(context.Context, int, aggregate.Query) ([]entity.Article, error) {
		return articles, nil
	}}
}

func failing(name, code string, retryable bool) *fakeProvider {
	return &fakeProvider{name: name, fn: func(context.Context, int, aggregate.Query) ([]entity.Article, error) {
		return nil, entity.NewSourceError(name, code, "upstream said no", retryable, nil)
	}}
}

var base = time.Now().Add(-2 * time.Hour).Truncate(time.Second)

func art(source, url string, ago time.Duration) entity.Article {
	return entity.Article{
		ID:          entity.NewArticleID(source, url),
		Title:       "story " + url,
		URL:         url,
		Source:      source,
		PublishedAt: base.Add(-ago),
		Category:    "business",
	}
}

var catalog = entity.Catalog{
	Categories: []string{"business", "technology"},
	Locations:  []string{"us", "gb"},
}

func testConfig() config.AggregatorConfig {
	return config.AggregatorConfig{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: 5 * time.Millisecond,
	}
}

func newService(cfg config.AggregatorConfig, providers ...aggregate.Provider) *aggregate.Service {
	return aggregate.NewService(catalog, providers, cfg, aggregate.WithLogger(slog.New(slog.DiscardHandler)))
}

func urls(articles []entity.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.URL
	}
	return out
}

func TestAggregate_MergesDedupesAndSorts(t *testing.T) {
	a := returning("alpha",
		art("alpha", "https://news.example/a1", 3*time.Hour),
		art("alpha", "https://news.example/shared", time.Hour),
		art("alpha", "https://news.example/tie-alpha", 2*time.Hour),
	)
	b := returning("beta",
		art("beta", "https://NEWS.example/shared/?utm_source=beta", 0),
		art("beta", "https://news.example/b1", 0),
		art("beta", "https://news.example/tie-beta", 2*time.Hour),
	)

	res, err := newService(testConfig(), a, b).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	want := []string{
		"https://news.example/b1",
		"https://news.example/shared",
		"https://news.example/tie-alpha",
		"https://news.example/tie-beta",
		"https://news.example/a1",
	}
	if diff := cmp.Diff(want, urls(res.Articles)); diff != "" {
		t.Errorf("article order mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)
	for _, article := range res.Articles {
		if article.URL == "https://news.example/shared" {
			assert.Equal(t, "alpha", article.Source, "first provider wins a duplicate")
		}
	}
}

func TestAggregate_UniqueURLsAndIDs(t *testing.T) {
	a := returning("alpha", art("alpha", "https://x.example/1", 0), art("alpha", "https://x.example/1#top", time.Minute))
	b := returning("beta", art("beta", "https://x.example/1", 0), art("beta", "https://x.example/2", 0))

	res, err := newService(testConfig(), a, b).Aggregate(context.Background(), "business", "")
	require.NoError(t, err)

	seenURL := map[string]bool{}
	seenID := map[string]bool{}
	for _, article := range res.Articles {
		key := entity.CanonicalURL(article.URL)
		assert.False(t, seenURL[key], "duplicate url %s", key)
		assert.False(t, seenID[article.ID], "duplicate id %s", article.ID)
		seenURL[key] = true
		seenID[article.ID] = true
	}
	assert.Len(t, res.Articles, 2)
}

func TestAggregate_PartialFailure(t *testing.T) {
	ok := returning("alpha", art("alpha", "https://x.example/1", 0))
	down := failing("beta", "HTTP_503", true)

	res, err := newService(testConfig(), ok, down).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Len(t, res.Articles, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "beta", res.Errors[0].Source)
	assert.Equal(t, "HTTP_503", res.Errors[0].Code)
	assert.True(t, res.Errors[0].Retryable)
	assert.False(t, res.AllFailed())
	assert.Nil(t, res.TotalFailure())
	assert.EqualValues(t, 3, down.calls.Load(), "retryable errors get MaxRetries retries")
}

func TestAggregate_NonRetryableIsNotRetried(t *testing.T) {
	p := failing("alpha", "HTTP_401", false)

	res, err := newService(testConfig(), p).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.EqualValues(t, 1, p.calls.Load())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "HTTP_401", res.Errors[0].Code)
}

func TestAggregate_RetrySucceeds(t *testing.T) {
	before := testutil.ToFloat64(metrics.ProviderRetriesTotal.WithLabelValues("flaky"))

	p := &fakeProvider{name: "flaky", fn: func(_ context.Context, call int, _ aggregate.Query) ([]entity.Article, error) {
		if call < 3 {
			return nil, entity.NewSourceError("flaky", entity.CodeNoResponse, "timeout", true, nil)
		}
		return []entity.Article{art("flaky", "https://x.example/ok", 0)}, nil
	}}

	res, err := newService(testConfig(), p).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Len(t, res.Articles, 1)
	assert.Empty(t, res.Errors)
	assert.EqualValues(t, 3, p.calls.Load())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ProviderRetriesTotal.WithLabelValues("flaky")))
}

func TestAggregate_EmptyProviderIsNotAnError(t *testing.T) {
	empty := returning("quiet")
	ok := returning("alpha", art("alpha", "https://x.example/1", 0))

	res, err := newService(testConfig(), empty, ok).Aggregate(context.Background(), "technology", "gb")
	require.NoError(t, err)

	assert.Len(t, res.Articles, 1)
	assert.Empty(t, res.Errors)
}

func TestAggregate_AllFail(t *testing.T) {
	a := failing("alpha", "HTTP_500", true)
	b := failing("beta", "DECODE_ERROR", false)

	res, err := newService(testConfig(), a, b).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.NotNil(t, res.Articles)
	assert.Empty(t, res.Articles)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "alpha", res.Errors[0].Source, "errors keep provider order")
	assert.Equal(t, "beta", res.Errors[1].Source)
	assert.True(t, res.AllFailed())

	total := res.TotalFailure()
	require.NotNil(t, total)
	assert.Equal(t, aggregate.CodeAllProvidersFailed, total.Extensions.Code)
	assert.True(t, total.Extensions.Retryable)

	gqlErrs := res.GraphQLErrors()
	require.Len(t, gqlErrs, 2)
	assert.Equal(t, "HTTP_500", gqlErrs[0].Extensions.Code)
	assert.Equal(t, "beta", gqlErrs[1].Extensions.Source)
}

func TestAggregate_InvalidQuery(t *testing.T) {
	p := returning("alpha")
	svc := newService(testConfig(), p)

	tests := []struct {
		name     string
		category string
		location string
		wantErr  error
	}{
		{name: "unknown category", category: "cooking", location: "us", wantErr: entity.ErrUnknownCategory},
		{name: "unknown location", category: "business", location: "atlantis", wantErr: entity.ErrUnknownLocation},
		{name: "empty category", category: "", location: "", wantErr: entity.ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Aggregate(context.Background(), tt.category, tt.location)
			assert.ErrorIs(t, err, aggregate.ErrInvalidQuery)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, p.calls.Load(), "no provider is called for an invalid query")
}

func TestAggregate_NoProviders(t *testing.T) {
	_, err := newService(testConfig()).Aggregate(context.Background(), "business", "us")
	assert.ErrorIs(t, err, aggregate.ErrNoProviders)
}

func TestAggregate_DeadlineYieldsNoResponse(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond

	slow := &fakeProvider{name: "slow", fn: func(ctx context.Context, _ int, _ aggregate.Query) ([]entity.Article, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fast := returning("fast", art("fast", "https://x.example/fast", 0))

	start := time.Now()
	res, err := newService(cfg, slow, fast).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, res.Articles, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "slow", res.Errors[0].Source)
	assert.Equal(t, entity.CodeNoResponse, res.Errors[0].Code)
	assert.True(t, res.Errors[0].Retryable)
}

func TestAggregate_DeadlineBoundsProviderIgnoringContext(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond
	release := make(chan struct{})
	defer close(release)

	stuck := &fakeProvider{name: "stuck", fn: func(context.Context, int, aggregate.Query) ([]entity.Article, error) {
		<-release
		return nil, nil
	}}

	start := time.Now()
	res, err := newService(cfg, stuck).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, entity.CodeNoResponse, res.Errors[0].Code)
}

func TestAggregate_CompletionOrderIndependence(t *testing.T) {
	build := func(seed int64) []aggregate.Provider {
		rng := rand.New(rand.NewSource(seed))
		var providers []aggregate.Provider
		for _, name := range []string{"p1", "p2", "p3", "p4"} {
			delay := time.Duration(rng.Intn(20)) * time.Millisecond
			articles := []entity.Article{
				art(name, "https://x.example/"+name, time.Duration(len(name))*time.Minute),
				art(name, "https://x.example/shared", 0),
				art(name, "https://x.example/same-time-"+name, 10*time.Minute),
			}
			providers = append(providers, &fakeProvider{name: name, fn: func(ctx context.Context, _ int, _ aggregate.Query) ([]entity.Article, error) {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return articles, nil
			}})
		}
		return providers
	}

	first, err := newService(testConfig(), build(1)...).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	for seed := int64(2); seed < 7; seed++ {
		got, err := newService(testConfig(), build(seed)...).Aggregate(context.Background(), "business", "us")
		require.NoError(t, err)
		if diff := cmp.Diff(first.Articles, got.Articles); diff != "" {
			t.Fatalf("seed %d produced a different merge (-first +got):\n%s", seed, diff)
		}
	}
	assert.Equal(t, "p1", first.Articles[0].Source, "shared story goes to the first provider")
}

func TestAggregate_DropsInvalidArticles(t *testing.T) {
	bad := art("alpha", "https://x.example/bad", 0)
	bad.PublishedAt = time.Time{}
	relative := art("alpha", "/relative", 0)
	good := art("alpha", "https://x.example/good", 0)

	res, err := newService(testConfig(), returning("alpha", bad, relative, good)).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://x.example/good"}, urls(res.Articles))
}

func TestAggregate_PlainProviderErrorIsClassified(t *testing.T) {
	p := &fakeProvider{name: "odd", fn: func(context.Context, int, aggregate.Query) ([]entity.Article, error) {
		return nil, errors.New("something unexpected")
	}}

	res, err := newService(testConfig(), p).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, entity.CodeRequestError, res.Errors[0].Code)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestAggregate_CircuitBreakerOpens(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.BreakerEnabled = true

	p := failing("shaky", "HTTP_502", true)
	svc := newService(cfg, p)

	for i := 0; i < 5; i++ {
		_, err := svc.Aggregate(context.Background(), "business", "us")
		require.NoError(t, err)
	}
	require.EqualValues(t, 5, p.calls.Load())

	res, err := svc.Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, entity.CodeCircuitOpen, res.Errors[0].Code)
	assert.False(t, res.Errors[0].Retryable)
	assert.EqualValues(t, 5, p.calls.Load(), "open breaker must not call the provider")
}

func TestAggregate_PassesQuery(t *testing.T) {
	var got aggregate.Query
	p := &fakeProvider{name: "alpha", fn: func(_ context.Context, _ int, q aggregate.Query) ([]entity.Article, error) {
		got = q
		return nil, nil
	}}

	svc := aggregate.NewService(catalog, []aggregate.Provider{p}, testConfig(),
		aggregate.WithLogger(slog.New(slog.DiscardHandler)),
		aggregate.WithPageSize(15))
	_, err := svc.Aggregate(context.Background(), " Business ", "GB")
	require.NoError(t, err)

	assert.Equal(t, aggregate.Query{Category: "business", Location: "gb", PageSize: 15}, got)
	assert.Equal(t, []string{"alpha"}, svc.Providers())
}

func TestAggregate_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	svc := aggregate.NewService(catalog,
		[]aggregate.Provider{returning("alpha"), failing("beta", "HTTP_404", false)},
		testConfig(),
		aggregate.WithLogger(slog.New(slog.DiscardHandler)),
		aggregate.WithTracer(tp.Tracer("test")))

	_, err := svc.Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["aggregate.Aggregate"])
	assert.Equal(t, 2, names["provider.FetchArticles"])
}

func TestAggregate_PanickingProviderIsIsolated(t *testing.T) {
	ok := returning("alpha", art("alpha", "https://x.example/1", 0))
	broken := &fakeProvider{name: "broken", fn: func(context.Context, int, aggregate.Query) ([]entity.Article, error) {
		var m map[string]int
		m["boom"]++
		return nil, nil
	}}

	cfg := testConfig()
	cfg.BreakerEnabled = true
	res, err := newService(cfg, ok, broken).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	require.Len(t, res.Articles, 1)
	assert.Equal(t, "alpha", res.Articles[0].Source)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "broken", res.Errors[0].Source)
	assert.Equal(t, entity.CodeProviderError, res.Errors[0].Code)
	assert.False(t, res.Errors[0].Retryable)
	assert.Contains(t, res.Errors[0].Message, "panicked")
	assert.EqualValues(t, 1, broken.calls.Load(), "a panic is not retried")
}

func TestAggregate_RealAdapterRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	published := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Markets rally","url":"https://news.example/markets","publishedAt":"` + published + `"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)

	factory := provider.NewFactory(slog.New(slog.DiscardHandler))
	factory.Transport = transport
	p, err := factory.Build(config.ProviderConfig{
		Name: "newsapi", Type: config.TypeNewsAPI, BaseURL: srv.URL, APIKey: "k",
	})
	require.NoError(t, err)

	cfg := testConfig()
	cfg.BreakerEnabled = true
	res, err := newService(cfg, p).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "https://news.example/markets", res.Articles[0].URL)
	assert.Equal(t, "newsapi", res.Articles[0].Source)
	assert.EqualValues(t, 3, hits.Load())
}

func TestNewService_ZeroConfigUsesDefaults(t *testing.T) {
	p := returning("alpha", art("alpha", "https://x.example/1", 0))

	res, err := newService(config.AggregatorConfig{}, p).Aggregate(context.Background(), "business", "us")
	require.NoError(t, err)

	assert.Empty(t, res.Errors)
	assert.Len(t, res.Articles, 1)
}
