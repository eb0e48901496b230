package newsletter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/reading-bot/internal/core/links"
)

const (
	introTimeout       = 30 * time.Second
	introMaxArticles   = 15
	introExcerptRunes  = 240
	introSummaryRunes  = 480
	introMaxRunes      = 800
	introSystemMessage = "You write the opening paragraph of a weekly reading-list newsletter for a team. " +
		"Write 2-4 plain sentences that connect the main themes of the articles. " +
		"No greeting, no sign-off, no markdown, no lists."
)

// intro asks the text generator for an opening paragraph. Failures yield
// an empty intro.
func (b *Builder) intro(ctx context.Context, issue Issue) string {
	if b.writer == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, introTimeout)
	defer cancel()

	text, err := b.writer.Complete(ctx, introSystemMessage, introPrompt(issue))
	if err != nil {
		b.logger.Warn().Err(err).Msg("Newsletter intro generation failed, continuing without it")
		return ""
	}

	return links.Truncate(strings.Join(strings.Fields(text), " "), introMaxRunes)
}

// introPrompt lists the issue's articles in rank order with their long
// summaries, or excerpts for unsummarised ones.
func introPrompt(issue Issue) string {
	var sb strings.Builder

	sb.WriteString("Articles in this issue:\n")

	for i, a := range issue.Articles {
		if i >= introMaxArticles {
			fmt.Fprintf(&sb, "...and %d more.\n", len(issue.Articles)-introMaxArticles)
			break
		}

		fmt.Fprintf(&sb, "%d. %s", i+1, a.DisplayTitle())

		text := links.Excerpt(a.Content, introExcerptRunes)
		if s, ok := issue.Summary(a); ok {
			text = links.Truncate(s.Long, introSummaryRunes)
		}

		if text != "" {
			sb.WriteString(": ")
			sb.WriteString(text)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
