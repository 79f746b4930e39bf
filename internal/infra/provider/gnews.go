package provider

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"
)

// GNews adapts https://gnews.io top headlines.
type GNews struct {
	base
}

// NewGNews creates a GNews adapter.
func NewGNews(cfg config.ProviderConfig, client Doer, logger *slog.Logger) *GNews {
	return &GNews{base: newBase(cfg, client, logger)}
}

type gnewsResponse struct {
	TotalArticles int      `json:"totalArticles"`
	Errors        []string `json:"errors"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchArticles implements aggregate.Provider.
func (p *GNews) FetchArticles(ctx context.Context, q aggregate.Query) ([]entity.Article, error) {
	query := map[string]string{
		"max":    strconv.Itoa(p.pageSize(q)),
		"apikey": p.cfg.APIKey,
	}
	if c := p.category(q.Category); c != "" {
		query["category"] = c
	}
	if l := p.location(q.Location); l != "" {
		query["country"] = l
	}

	body, err := p.get(ctx, p.cfg.BaseURL+"/api/v4/top-headlines", nil, query)
	if err != nil {
		return nil, err
	}

	var resp gnewsResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, p.providerError("gnews error: %s", strings.Join(resp.Errors, "; "))
	}

	records := make([]record, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		records = append(records, record{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			ImageURL:    a.Image,
			PublishedAt: a.PublishedAt,
		})
	}
	return p.normalize(records, q.Category), nil
}
