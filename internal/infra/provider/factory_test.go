package provider

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestFactory_BuildAll(t *testing.T) {
	f := NewFactory(nil)

	providers, err := f.BuildAll([]config.ProviderConfig{
		{Name: "newsapi", Type: config.TypeNewsAPI, BaseURL: "https://newsapi.org"},
		{Name: "gnews", Type: config.TypeGNews, BaseURL: "https://gnews.io", Enabled: boolPtr(false)},
		{Name: "guardian", Type: "Guardian", BaseURL: "https://content.guardianapis.com"},
		{Name: "bbc", Type: config.TypeRSS, FeedURL: "https://feeds.bbci.co.uk/news/{category}/rss.xml"},
	})
	require.NoError(t, err)
	require.Len(t, providers, 3)

	assert.IsType(t, &NewsAPI{}, providers[0])
	assert.IsType(t, &Guardian{}, providers[1])
	assert.IsType(t, &RSS{}, providers[2])
	assert.Equal(t, "bbc", providers[2].Name())
}

func TestFactory_UnknownType(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.Build(config.ProviderConfig{Name: "x", Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")

	_, err = f.BuildAll([]config.ProviderConfig{{Name: "x", Type: "carrier-pigeon"}})
	require.Error(t, err)
}

type stubProvider struct{ name string }

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) FetchArticles(context.Context, aggregate.Query) ([]entity.Article, error) {
	return []entity.Article{}, nil
}

func TestFactory_Register(t *testing.T) {
	f := NewFactory(nil)
	f.Register("  Stub ", func(cfg config.ProviderConfig, _ Doer, _ *slog.Logger) aggregate.Provider {
		return stubProvider{name: cfg.Name}
	})

	p, err := f.Build(config.ProviderConfig{Name: "mine", Type: "stub"})
	require.NoError(t, err)
	assert.Equal(t, stubProvider{name: "mine"}, p)
}

func TestFactory_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","articles":[]}`))
	}))
	defer srv.Close()

	var hits int
	f := NewFactory(nil)
	f.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		hits++
		return http.DefaultTransport.RoundTrip(r)
	})

	p, err := f.Build(config.ProviderConfig{Name: "newsapi", Type: config.TypeNewsAPI, BaseURL: srv.URL, RateLimit: 50})
	require.NoError(t, err)

	articles, err := p.FetchArticles(context.Background(), aggregate.Query{Category: "general"})
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Equal(t, 1, hits)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
