package provider

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"
)

// NewsAPI adapts https://newsapi.org top headlines.
type NewsAPI struct {
	base
}

// NewNewsAPI creates a NewsAPI adapter.
func NewNewsAPI(cfg config.ProviderConfig, client Doer, logger *slog.Logger) *NewsAPI {
	return &NewsAPI{base: newBase(cfg, client, logger)}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewsAPI cuts content and appends e.g. " [+1234 chars]".
var truncatedSuffix = regexp.MustCompile(`\s*\[\+\d+ chars\]$`)

// FetchArticles implements aggregate.Provider.
func (p *NewsAPI) FetchArticles(ctx context.Context, q aggregate.Query) ([]entity.Article, error) {
	query := map[string]string{
		"pageSize": strconv.Itoa(p.pageSize(q)),
	}
	if c := p.category(q.Category); c != "" {
		query["category"] = c
	}
	if l := p.location(q.Location); l != "" {
		query["country"] = l
	}

	body, err := p.get(ctx, p.cfg.BaseURL+"/v2/top-headlines",
		map[string]string{"X-Api-Key": p.cfg.APIKey}, query)
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, p.providerError("newsapi error %s: %s", resp.Code, resp.Message)
	}

	records := make([]record, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		// NewsAPI marks removed stories with this placeholder.
		if a.Title == "[Removed]" {
			continue
		}
		records = append(records, record{
			Title:       a.Title,
			Description: a.Description,
			Content:     truncatedSuffix.ReplaceAllString(a.Content, ""),
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	return p.normalize(records, q.Category), nil
}
