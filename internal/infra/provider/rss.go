package provider

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"

	"github.com/mmcdole/gofeed"
)

// RSS adapts any RSS or Atom feed whose URL can be built from a template with
// {category} and {location} placeholders.
type RSS struct {
	base
}

// NewRSS creates an RSS adapter.
func NewRSS(cfg config.ProviderConfig, client Doer, logger *slog.Logger) *RSS {
	return &RSS{base: newBase(cfg, client, logger)}
}

// feedURL fills the template. Placeholder values are path-escaped.
func (p *RSS) feedURL(q aggregate.Query) string {
	return strings.NewReplacer(
		"{category}", url.PathEscape(p.category(q.Category)),
		"{location}", url.PathEscape(p.location(q.Location)),
	).Replace(p.cfg.FeedURL)
}

// FetchArticles implements aggregate.Provider.
func (p *RSS) FetchArticles(ctx context.Context, q aggregate.Query) ([]entity.Article, error) {
	body, err := p.get(ctx, p.feedURL(q), map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
	}, nil)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, entity.NewSourceError(p.cfg.Name, entity.CodeDecodeError,
			fmt.Sprintf("parse feed: %v", err), false, err)
	}

	limit := p.pageSize(q)
	records := make([]record, 0, min(len(feed.Items), limit))
	for _, it := range feed.Items {
		if len(records) == limit {
			break
		}

		r := record{
			Title:       it.Title,
			Description: it.Description,
			Content:     it.Content,
			URL:         it.Link,
			ImageURL:    itemImage(it),
			PublishedAt: it.Published,
			Published:   it.PublishedParsed,
		}
		if r.PublishedAt == "" && r.Published == nil {
			r.PublishedAt = it.Updated
			r.Published = it.UpdatedParsed
		}
		records = append(records, r)
	}
	return p.normalize(records, q.Category), nil
}

func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
