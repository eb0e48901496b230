package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

const selectSummaryColumns = `url, title, short_summary, long_summary, interest_score, updated_at`

const upsertArticleSummary = `
INSERT INTO article_summaries (url, title, short_summary, long_summary, interest_score, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	short_summary = EXCLUDED.short_summary,
	long_summary = EXCLUDED.long_summary,
	interest_score = EXCLUDED.interest_score,
	updated_at = now()`

// Summaries returns cached article summaries keyed by canonical URL.
// URLs without an entry are absent from the map.
func (db *DB) Summaries(ctx context.Context, urls []string) (map[string]domain.ArticleSummary, error) {
	out := make(map[string]domain.ArticleSummary, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	rows, err := db.Pool.Query(ctx, `SELECT `+selectSummaryColumns+` FROM article_summaries WHERE url = ANY($1)`, urls)
	if err != nil {
		return nil, fmt.Errorf("select article summaries: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, scanArticleSummary)
	if err != nil {
		return nil, fmt.Errorf("scan article summaries: %w", err)
	}

	for _, s := range summaries {
		out[s.URL] = s
	}

	return out, nil
}

// TopSummaries returns the highest-scored summaries, best first.
func (db *DB) TopSummaries(ctx context.Context, limit int) ([]domain.ArticleSummary, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+selectSummaryColumns+`
FROM article_summaries
ORDER BY interest_score DESC, updated_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select top summaries: %w", err)
	}

	summaries, err := pgx.CollectRows(rows, scanArticleSummary)
	if err != nil {
		return nil, fmt.Errorf("scan top summaries: %w", err)
	}

	return summaries, nil
}

// SaveSummary inserts or replaces the summary for s.URL.
func (db *DB) SaveSummary(ctx context.Context, s domain.ArticleSummary) error {
	_, err := db.Pool.Exec(ctx, upsertArticleSummary,
		s.URL,
		toText(s.Title),
		SanitizeUTF8(s.Short),
		SanitizeUTF8(s.Long),
		float32(s.Score),
	)
	if err != nil {
		return fmt.Errorf("upsert article summary: %w", err)
	}

	return nil
}

func scanArticleSummary(row pgx.CollectableRow) (domain.ArticleSummary, error) {
	var (
		s       domain.ArticleSummary
		title   pgtype.Text
		score   float32
		updated pgtype.Timestamptz
	)

	if err := row.Scan(&s.URL, &title, &s.Short, &s.Long, &score, &updated); err != nil {
		return domain.ArticleSummary{}, err
	}

	s.Title = fromText(title)
	s.Score = float64(score)
	s.UpdatedAt = fromTimestamptz(updated)

	return s, nil
}
