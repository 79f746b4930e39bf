package article

import (
	"log/slog"
	"net/http"
)

// Register mounts the article routes on mux.
func Register(mux *http.ServeMux, svc Aggregator, defaultCategory string, logger *slog.Logger) {
	mux.Handle("GET /articles", ListHandler{
		Svc:             svc,
		Logger:          logger,
		DefaultCategory: defaultCategory,
	})
}
