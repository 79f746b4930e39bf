// Package article serves the aggregated article feed over HTTP.
package article

import (
	"time"

	"newshub/internal/domain/entity"
	"newshub/internal/utils/datetime"
)

// DTO is one article as returned by GET /articles.
type DTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	// PublishedAgo is a display string such as "3 hours ago".
	PublishedAgo string `json:"publishedAgo"`
}

// ListResponse is the 200 body of GET /articles.
type ListResponse struct {
	Articles []DTO                 `json:"articles"`
	Errors   []*entity.SourceError `json:"errors"`
}

func toDTO(a entity.Article, now time.Time) DTO {
	return DTO{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		Content:      a.Content,
		URL:          a.URL,
		ImageURL:     a.ImageURL,
		Source:       a.Source,
		Category:     a.Category,
		PublishedAt:  a.PublishedAt,
		PublishedAgo: datetime.RelativeTime(a.PublishedAt.Format(time.RFC3339), now),
	}
}
