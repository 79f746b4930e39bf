// Package http holds the API's HTTP plumbing: health endpoints, middleware and the
// Prometheus handler. Route handlers live in subpackages.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy", "degraded" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // RFC 3339
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the status of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ProviderStatus reports the configured providers and their breaker states.
// *aggregate.Service implements it.
type ProviderStatus interface {
	Providers() []string
	BreakerStates() map[string]string
}

// HealthHandler reports whether aggregation can currently reach any provider.
//
// No providers, or every breaker open, is unhealthy (503). Some breakers open is
// degraded but still 200, since partial results are a normal outcome.
type HealthHandler struct {
	Providers ProviderStatus
	Version   string
	Logger    *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	check := h.checkProviders()

	statusCode := http.StatusOK
	if check.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    check.Status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]CheckStatus{"providers": check},
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger().Error("health: failed to encode response", slog.Any("error", err))
	}
}

func (h *HealthHandler) checkProviders() CheckStatus {
	if h.Providers == nil {
		return CheckStatus{Status: "unhealthy", Message: "not configured"}
	}

	names := h.Providers.Providers()
	if len(names) == 0 {
		return CheckStatus{Status: "unhealthy", Message: "no providers enabled"}
	}

	details := map[string]any{"count": len(names), "enabled": names}
	states := h.Providers.BreakerStates()
	if states == nil {
		return CheckStatus{Status: "healthy", Details: details}
	}
	details["breakers"] = states

	var open []string
	for name, state := range states {
		if state == "open" {
			open = append(open, name)
		}
	}
	sort.Strings(open)

	switch {
	case len(open) == len(names):
		return CheckStatus{Status: "unhealthy", Message: "all provider circuits open", Details: details}
	case len(open) > 0:
		details["open"] = open
		return CheckStatus{Status: "degraded", Message: "some provider circuits open", Details: details}
	default:
		return CheckStatus{Status: "healthy", Details: details}
	}
}

func (h *HealthHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LiveHandler answers liveness probes; it only proves the process responds.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
