package bot

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lueurxax/reading-bot/internal/core/emoji"
)

const (
	duplicateText      = "This link is already in the archive."
	saveFailedText     = "Couldn't save that link to the archive. Please try again later."
	queryFailedText    = "Couldn't reach the archive. Please try again later."
	lookingUpText      = "Looking that up…"
	newsletterOffText  = "The newsletter is not configured."
	newsletterBusyText = "Building the newsletter preview…"
)

func rateLimitedText(retryAfter time.Duration) string {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}

	return fmt.Sprintf("Too many requests right now. Try again in %d seconds.", secs)
}

func futureDateText(err error) string {
	return fmt.Sprintf("That date is in the future (%v). Ask about a date up to today.", err)
}

// helpText lists the usage and the configured emojis.
func helpText(table *emoji.Table, defaultDays int) string {
	var sb strings.Builder

	sb.WriteString("*Reading list bot*\n")
	sb.WriteString("React to a message with one of the emojis below to save its first link.\n")
	fmt.Fprintf(&sb, "Ask for saved articles with an emoji and an optional date, e.g. `:%s: since monday`. ", exampleEmoji(table))
	fmt.Fprintf(&sb, "Without a date the last %d days are shown.\n", defaultDays)
	sb.WriteString("Commands: `help`, `list`, `newsletter [date]`.\n\n")
	sb.WriteString(emojiList(table))

	return sb.String()
}

func emojiList(table *emoji.Table) string {
	lines := make([]string, 0, table.Len())
	for _, e := range table.Entries() {
		lines = append(lines, fmt.Sprintf("• :%s: → *%s*", e.Emoji, e.Label))
	}

	return strings.Join(lines, "\n")
}

func exampleEmoji(table *emoji.Table) string {
	names := table.Emojis()
	if len(names) == 0 {
		return emoji.DefaultEmoji
	}

	return names[0]
}
