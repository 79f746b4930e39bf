package http

import (
	"net/http"
	"strings"
	"time"

	"newshub/internal/handler/http/responsewriter"
	"newshub/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests no mux pattern matched, keeping label cardinality bounded.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request count and latency per route pattern.
// It must wrap the *http.ServeMux directly: the mux sets r.Pattern on the request
// it receives, and any middleware in between would hand it a copy.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := responsewriter.Wrap(w)

		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(r.Method, routeLabel(r), wrapped.StatusCode(), time.Since(start))
	})
}

// routeLabel returns the path part of the matched pattern, e.g. "/articles".
func routeLabel(r *http.Request) string {
	p := r.Pattern
	if p == "" {
		return unmatchedRoute
	}
	// patterns may carry a method or host prefix: "GET /articles"
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[i:]
	}
	return p
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
