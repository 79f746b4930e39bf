package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newshub/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /articles", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	h := MetricsMiddleware(mux)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/articles", "502")
	before := testutil.ToFloat64(counter)

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles?category=science", nil))
		require.Equal(t, http.StatusBadGateway, rec.Code)
	}
	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	h := MetricsMiddleware(http.NewServeMux())

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/articles/123456", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"":                  unmatchedRoute,
		"/health":           "/health",
		"GET /articles":     "/articles",
		"api.example.com/x": "/x",
	}
	for pattern, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Pattern = pattern
		assert.Equal(t, want, routeLabel(r), pattern)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics.RecordHTTPRequest(http.MethodGet, "/health", http.StatusOK, 0)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "newshub_http_requests_total"))
}
