// Package entity defines the canonical, provider-independent domain model of the
// aggregator: articles, per-source errors and the static category/location catalog.
package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"newshub/internal/utils/datetime"
)

// Article is the canonical news article every provider response is normalized into.
// Articles are built fresh for each aggregation and never mutated afterwards.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    string    `json:"category"`
}

// NewArticleID derives the stable article id for a source and URL.
// The id only depends on the canonical URL, so the same story reported twice by one
// source keeps one id.
func NewArticleID(source, rawURL string) string {
	sum := sha256.Sum256([]byte(CanonicalURL(rawURL)))
	return strings.ToLower(source) + "-" + hex.EncodeToString(sum[:])[:16]
}

// Validate checks the invariants every article in a merged result must satisfy.
// It returns a *ValidationError naming the first field that fails.
func (a *Article) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(a.Source) == "" {
		return &ValidationError{Field: "source", Message: "source is required"}
	}
	if err := ValidateURL(a.URL); err != nil {
		return err
	}
	if a.PublishedAt.IsZero() {
		return &ValidationError{Field: "publishedAt", Message: "publishedAt is required"}
	}
	if !datetime.InRange(a.PublishedAt, time.Now()) {
		return &ValidationError{Field: "publishedAt", Message: "publishedAt is out of range"}
	}
	return nil
}
