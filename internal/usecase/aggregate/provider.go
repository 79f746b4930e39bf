package aggregate

import (
	"context"

	"newshub/internal/domain/entity"
)

// Query is what one provider is asked for.
type Query struct {
	// Category is a catalog category id; adapters map it to their own vocabulary.
	Category string
	// Location is a catalog location id, or "" for no location filter.
	Location string
	// PageSize caps the number of records requested; 0 lets the adapter use its default.
	PageSize int
}

// Provider fetches articles from one upstream news source.
//
// Implementations must honor ctx cancellation, return only valid articles and report
// failure as a *entity.SourceError. A provider with nothing to report returns an
// empty slice and a nil error.
type Provider interface {
	Name() string
	FetchArticles(ctx context.Context, q Query) ([]entity.Article, error)
}
