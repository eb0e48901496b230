// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

// Archive is the read-it-later service that stores articles.
type Archive interface {
	// FindByURL reports whether the URL is already archived and its entry id.
	FindByURL(ctx context.Context, rawURL string) (int64, bool, error)
	Save(ctx context.Context, rawURL string, tags []string) (domain.Article, error)
	// List returns matching articles newest first.
	List(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error)
}

// ChatClient talks to the chat platform's Web API.
type ChatClient interface {
	FetchMessage(ctx context.Context, channelID, ts string) (domain.Message, error)
	// PostMessage posts text, threaded under threadTS when it is set, and
	// returns the new message timestamp.
	PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error)
	PostEphemeral(ctx context.Context, channelID, userID, threadTS, text string) error
	// Respond answers a slash command through its response URL.
	Respond(ctx context.Context, responseURL, text string, ephemeral bool) error
}

// SaveLog records successful saves.
type SaveLog interface {
	RecordSave(ctx context.Context, rec domain.SaveRecord) error
}

// NewsletterStore remembers when the newsletter was last posted.
type NewsletterStore interface {
	// LastNewsletterRun returns errors.ErrNotFound when nothing was posted yet.
	LastNewsletterRun(ctx context.Context) (domain.NewsletterRun, error)
	RecordNewsletterRun(ctx context.Context, run domain.NewsletterRun) error
}

// SummaryCache keeps generated article summaries so each article is
// summarised once.
type SummaryCache interface {
	// Summaries returns the cached entries for the given canonical URLs.
	Summaries(ctx context.Context, urls []string) (map[string]domain.ArticleSummary, error)
	SaveSummary(ctx context.Context, summary domain.ArticleSummary) error
	// TopSummaries returns the highest-scored entries, best first.
	TopSummaries(ctx context.Context, limit int) ([]domain.ArticleSummary, error)
}

// TextGenerator produces short prose from a prompt.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
