package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

const selectLastNewsletterRun = `
SELECT run_at, article_count, channel_id
FROM newsletter_runs
ORDER BY run_at DESC
LIMIT 1`

const insertNewsletterRun = `
INSERT INTO newsletter_runs (run_at, article_count, channel_id)
VALUES ($1, $2, $3)`

// LastNewsletterRun returns the most recent run or ErrNotFound.
func (db *DB) LastNewsletterRun(ctx context.Context) (domain.NewsletterRun, error) {
	var (
		runAt   pgtype.Timestamptz
		count   pgtype.Int4
		channel pgtype.Text
	)

	err := db.Pool.QueryRow(ctx, selectLastNewsletterRun).Scan(&runAt, &count, &channel)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewsletterRun{}, apperrors.ErrNotFound
	}

	if err != nil {
		return domain.NewsletterRun{}, fmt.Errorf("select last newsletter run: %w", err)
	}

	return domain.NewsletterRun{
		RunAt:        fromTimestamptz(runAt),
		ArticleCount: int(count.Int32),
		ChannelID:    fromText(channel),
	}, nil
}

// RecordNewsletterRun stores a posted issue.
func (db *DB) RecordNewsletterRun(ctx context.Context, run domain.NewsletterRun) error {
	if _, err := db.Pool.Exec(ctx, insertNewsletterRun, toTimestamptz(run.RunAt), toInt4(run.ArticleCount), toText(run.ChannelID)); err != nil {
		return fmt.Errorf("insert newsletter run: %w", err)
	}

	return nil
}
