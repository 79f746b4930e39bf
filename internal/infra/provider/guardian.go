package provider

import (
	"context"
	"log/slog"
	"strconv"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/usecase/aggregate"
)

// Guardian adapts the Guardian Open Platform content search.
// The Guardian has no country filter; a location becomes a free-text query instead.
type Guardian struct {
	base
}

// NewGuardian creates a Guardian adapter.
func NewGuardian(cfg config.ProviderConfig, client Doer, logger *slog.Logger) *Guardian {
	return &Guardian{base: newBase(cfg, client, logger)}
}

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			ID                 string `json:"id"`
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// FetchArticles implements aggregate.Provider.
func (p *Guardian) FetchArticles(ctx context.Context, q aggregate.Query) ([]entity.Article, error) {
	query := map[string]string{
		"page-size":   strconv.Itoa(p.pageSize(q)),
		"api-key":     p.cfg.APIKey,
		"show-fields": "trailText,thumbnail,bodyText",
		"order-by":    "newest",
	}
	if s := p.category(q.Category); s != "" {
		query["section"] = s
	}
	if l := p.location(q.Location); l != "" {
		query["q"] = l
	}

	body, err := p.get(ctx, p.cfg.BaseURL+"/search", nil, query)
	if err != nil {
		return nil, err
	}

	var resp guardianResponse
	if err := p.decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Response.Status != "" && resp.Response.Status != "ok" {
		return nil, p.providerError("guardian status %s: %s", resp.Response.Status, resp.Response.Message)
	}

	records := make([]record, 0, len(resp.Response.Results))
	for _, r := range resp.Response.Results {
		records = append(records, record{
			Title:       r.WebTitle,
			Description: r.Fields.TrailText,
			Content:     r.Fields.BodyText,
			URL:         r.WebURL,
			ImageURL:    r.Fields.Thumbnail,
			PublishedAt: r.WebPublicationDate,
		})
	}
	return p.normalize(records, q.Category), nil
}
