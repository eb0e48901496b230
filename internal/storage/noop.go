package db

import (
	"context"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

// Noop stands in for the database when POSTGRES_DSN is unset. Saves and
// summaries are dropped and no newsletter run is ever found.
type Noop struct{}

// RecordSave does nothing.
func (Noop) RecordSave(context.Context, domain.SaveRecord) error {
	return nil
}

// LastNewsletterRun always reports ErrNotFound.
func (Noop) LastNewsletterRun(context.Context) (domain.NewsletterRun, error) {
	return domain.NewsletterRun{}, apperrors.ErrNotFound
}

// RecordNewsletterRun does nothing.
func (Noop) RecordNewsletterRun(context.Context, domain.NewsletterRun) error {
	return nil
}

// Summaries returns an empty map.
func (Noop) Summaries(context.Context, []string) (map[string]domain.ArticleSummary, error) {
	return map[string]domain.ArticleSummary{}, nil
}

// SaveSummary does nothing.
func (Noop) SaveSummary(context.Context, domain.ArticleSummary) error {
	return nil
}

// TopSummaries returns nothing.
func (Noop) TopSummaries(context.Context, int) ([]domain.ArticleSummary, error) {
	return nil, nil
}
