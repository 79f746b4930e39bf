package article

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"newshub/internal/domain/entity"
	"newshub/internal/handler/http/respond"
	"newshub/internal/observability/logging"
	"newshub/internal/usecase/aggregate"
)

// Aggregator is the part of aggregate.Service the handler needs.
type Aggregator interface {
	Aggregate(ctx context.Context, category, location string) (*aggregate.Result, error)
}

// totalFailureBody is the 502 body: the summary error first, then one entry per provider.
type totalFailureBody struct {
	Errors []aggregate.GraphQLError `json:"errors"`
}

// ListHandler serves GET /articles?category=&location=.
type ListHandler struct {
	Svc    Aggregator
	Logger *slog.Logger
	// DefaultCategory is used when the query omits category.
	DefaultCategory string

	now func() time.Time
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.logger())

	category := r.URL.Query().Get("category")
	if category == "" {
		category = h.DefaultCategory
	}
	location := r.URL.Query().Get("location")

	result, err := h.Svc.Aggregate(ctx, category, location)
	switch {
	case errors.Is(err, aggregate.ErrInvalidQuery):
		logger.Info("rejected article query",
			slog.String("category", category),
			slog.String("location", location),
			slog.String("error", err.Error()))
		respond.Error(w, http.StatusBadRequest, respond.CodeBadRequest, queryMessage(err))
		return
	case err != nil:
		respond.InternalError(w, logger, err)
		return
	}

	if total := result.TotalFailure(); total != nil {
		errs := append([]aggregate.GraphQLError{*total}, result.GraphQLErrors()...)
		for i := range errs {
			errs[i].Message = respond.Sanitize(errs[i].Message)
		}
		respond.JSON(w, http.StatusBadGateway, totalFailureBody{Errors: errs})
		return
	}

	now := time.Now
	if h.now != nil {
		now = h.now
	}
	t := now()

	resp := ListResponse{
		Articles: make([]DTO, 0, len(result.Articles)),
		Errors:   make([]*entity.SourceError, 0, len(result.Errors)),
	}
	for _, a := range result.Articles {
		resp.Articles = append(resp.Articles, toDTO(a, t))
	}
	for _, e := range result.Errors {
		masked := *e
		masked.Message = respond.Sanitize(e.Message)
		resp.Errors = append(resp.Errors, &masked)
	}

	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, resp)
}

func (h ListHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// queryMessage keeps the caller-facing part of an invalid query error.
func queryMessage(err error) string {
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
