package archive

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

type entryTag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

type entry struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	GivenURL    string     `json:"given_url"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	DomainName  string     `json:"domain_name"`
	ReadingTime int        `json:"reading_time"`
	CreatedAt   string     `json:"created_at"`
	PublishedAt string     `json:"published_at"`
	Tags        []entryTag `json:"tags"`
}

func (e entry) toDomain() domain.Article {
	tags := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		if t.Label != "" {
			tags = append(tags, t.Label)
		}
	}

	u := e.URL
	if u == "" {
		u = e.GivenURL
	}

	return domain.Article{
		ID:          e.ID,
		URL:         u,
		Title:       strings.TrimSpace(e.Title),
		Content:     e.Content,
		Domain:      e.DomainName,
		Tags:        tags,
		ReadingTime: e.ReadingTime,
		CreatedAt:   parseTimestamp(e.CreatedAt),
		PublishedAt: parseTimestamp(e.PublishedAt),
	}
}

// parseTimestamp accepts Wallabag's native layout and falls back to
// dateparse for RFC 3339 and other variants. Unparseable input yields zero.
func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	if t, err := time.Parse(timestampLayout, raw); err == nil {
		return t
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}
	}

	return t
}

func sortNewestFirst(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
}
