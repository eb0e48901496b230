package db

import (
	"context"
	"fmt"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

const insertSavedLink = `
INSERT INTO saved_links (url, tag, emoji, channel_id, message_ts, user_id, archive_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
ON CONFLICT (url, tag) DO NOTHING`

// RecordSave appends a save to the log. Repeated saves of the same URL and
// tag are ignored.
func (db *DB) RecordSave(ctx context.Context, rec domain.SaveRecord) error {
	_, err := db.Pool.Exec(ctx, insertSavedLink,
		SanitizeUTF8(rec.URL),
		SanitizeUTF8(rec.Tag),
		toText(rec.Emoji),
		toText(rec.ChannelID),
		toText(rec.MessageTS),
		toText(rec.UserID),
		toInt8(rec.ArchiveID),
		toTimestamptz(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert saved link: %w", err)
	}

	return nil
}
