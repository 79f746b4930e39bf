package aggregate

import (
	"log/slog"
	"sort"

	"newshub/internal/domain/entity"
	"newshub/internal/utils/datetime"
)

// outcome is what one provider slot holds after the fan-out settles.
type outcome struct {
	articles []entity.Article
	err      *entity.SourceError
}

// mergeStats counts what merge dropped.
type mergeStats struct {
	invalid    int
	duplicates int
}

// merge combines slot results in provider order. The first occurrence of a canonical
// URL wins, and the stable sort keeps provider order, then in-provider order, on ties.
func merge(outcomes []outcome, logger *slog.Logger) ([]entity.Article, mergeStats) {
	var stats mergeStats

	total := 0
	for _, o := range outcomes {
		total += len(o.articles)
	}

	articles := make([]entity.Article, 0, total)
	seen := make(map[string]struct{}, total)

	for _, o := range outcomes {
		for _, a := range o.articles {
			if err := a.Validate(); err != nil {
				stats.invalid++
				logger.Debug("dropping invalid article",
					slog.String("source", a.Source),
					slog.String("url", a.URL),
					slog.Any("error", err))
				continue
			}
			key := entity.CanonicalURL(a.URL)
			if _, dup := seen[key]; dup {
				stats.duplicates++
				continue
			}
			seen[key] = struct{}{}
			articles = append(articles, a)
		}
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return datetime.SortKey(articles[i].PublishedAt) > datetime.SortKey(articles[j].PublishedAt)
	})

	return articles, stats
}
