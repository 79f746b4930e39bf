// Package provider holds one adapter per upstream news API. An adapter owns the
// request shaping (auth, parameter names) and the response shaping (field mapping,
// date normalization) of its provider and nothing else: retries, breakers and
// merging belong to the aggregator.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newshub/internal/config"
	"newshub/internal/domain/entity"
	"newshub/internal/infra/httpclient"
	"newshub/internal/observability/metrics"
	"newshub/internal/usecase/aggregate"
	"newshub/internal/utils/datetime"
	"newshub/internal/utils/text"

	"github.com/PuerkitoBio/goquery"
)

// Doer sends one HTTP request; *httpclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Reasons recorded when a record is skipped.
const (
	skipMissingTitle = "missing_title"
	skipInvalidURL   = "invalid_url"
	skipInvalidDate  = "invalid_date"
)

const maxDescriptionRunes = 1000

// base carries what every adapter shares.
type base struct {
	cfg    config.ProviderConfig
	client Doer
	logger *slog.Logger
	now    func() time.Time
}

func newBase(cfg config.ProviderConfig, client Doer, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("provider", cfg.Name)),
		now:    time.Now,
	}
}

func (b *base) Name() string { return b.cfg.Name }

// category maps a catalog category onto the provider's vocabulary.
func (b *base) category(id string) string {
	if v, ok := b.cfg.CategoryMap[id]; ok {
		return v
	}
	return id
}

// location maps a catalog location onto the provider's vocabulary.
func (b *base) location(id string) string {
	if v, ok := b.cfg.LocationMap[id]; ok {
		return v
	}
	return id
}

func (b *base) pageSize(q aggregate.Query) int {
	n := q.PageSize
	if n <= 0 {
		n = b.cfg.PageSize
	}
	if n <= 0 {
		n = config.DefaultPageSize
	}
	if n > config.MaxPageSize {
		n = config.MaxPageSize
	}
	return n
}

// get performs a GET and classifies any transport failure.
func (b *base) get(ctx context.Context, url string, headers, query map[string]string) ([]byte, error) {
	resp, err := b.client.Do(ctx, httpclient.Request{
		Method:  http.MethodGet,
		URL:     url,
		Headers: headers,
		Query:   query,
		Timeout: b.cfg.Timeout,
	})
	if err != nil {
		return nil, httpclient.Classify(b.cfg.Name, err)
	}
	return resp.Body, nil
}

// decode unmarshals a JSON body, reporting failure as DECODE_ERROR.
func (b *base) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return entity.NewSourceError(b.cfg.Name, entity.CodeDecodeError,
			fmt.Sprintf("decode response: %v", err), false, err)
	}
	return nil
}

// providerError reports an error the provider signalled inside a 2xx body.
func (b *base) providerError(format string, args ...any) error {
	return entity.NewSourceError(b.cfg.Name, entity.CodeProviderError,
		fmt.Sprintf(format, args...), false, nil)
}

// record is one upstream item before normalization.
type record struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	PublishedAt string
	// Published is used when the provider already parsed the date (RSS).
	Published *time.Time
}

// normalize turns records into valid articles, skipping and counting bad ones.
func (b *base) normalize(records []record, category string) []entity.Article {
	now := b.now()
	articles := make([]entity.Article, 0, len(records))

	for _, r := range records {
		a, reason := b.toArticle(r, category, now)
		if reason != "" {
			metrics.RecordSkippedRecord(b.cfg.Name, reason)
			b.logger.Debug("skipping record",
				slog.String("reason", reason),
				slog.String("title", text.Truncate(r.Title, 80)),
				slog.String("url", r.URL))
			continue
		}
		articles = append(articles, a)
	}
	return articles
}

func (b *base) toArticle(r record, category string, now time.Time) (entity.Article, string) {
	title := text.CollapseWhitespace(stripHTML(r.Title))
	if title == "" {
		return entity.Article{}, skipMissingTitle
	}

	link := strings.TrimSpace(r.URL)
	if entity.ValidateURL(link) != nil {
		return entity.Article{}, skipInvalidURL
	}

	var published time.Time
	if t, err := datetime.ParseTimestamp(r.PublishedAt); err == nil {
		published = t
	} else if r.Published != nil {
		published = r.Published.UTC()
	} else {
		return entity.Article{}, skipInvalidDate
	}
	if !datetime.InRange(published, now) {
		return entity.Article{}, skipInvalidDate
	}

	image := strings.TrimSpace(r.ImageURL)
	if image != "" && entity.ValidateURL(image) != nil {
		image = ""
	}

	return entity.Article{
		ID:          entity.NewArticleID(b.cfg.Name, link),
		Title:       title,
		Description: text.Truncate(text.CollapseWhitespace(stripHTML(r.Description)), maxDescriptionRunes),
		Content:     strings.TrimSpace(stripHTML(r.Content)),
		URL:         link,
		ImageURL:    image,
		Source:      b.cfg.Name,
		PublishedAt: published,
		Category:    category,
	}, ""
}

// stripHTML returns the text content of s when it looks like markup.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
