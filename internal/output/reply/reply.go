// Package reply renders archive query results as Slack mrkdwn messages.
package reply

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/links"
)

const (
	DefaultMaxChars     = 3000
	defaultExcerptRunes = 200
	dateLayout          = "Jan 2, 2006"
	articleSeparator    = "\n\n"
	truncatedMarker     = "…"
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Formatter turns articles into one or more chat messages.
type Formatter struct {
	loc          *time.Location
	maxChars     int
	excerptRunes int
}

// NewFormatter creates a formatter. Dates are shown in loc and every part
// stays within maxChars runes.
func NewFormatter(loc *time.Location, maxChars int) *Formatter {
	if loc == nil {
		loc = time.UTC
	}

	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return &Formatter{loc: loc, maxChars: maxChars, excerptRunes: defaultExcerptRunes}
}

// Query renders the result of a tag query. An empty result yields a single
// "nothing found" message.
func (f *Formatter) Query(label string, since time.Time, articles []domain.Article) []string {
	if len(articles) == 0 {
		return []string{f.Empty(label, since)}
	}

	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, f.Article(a))
	}

	return Split(f.header(label, since, len(articles)), blocks, f.maxChars)
}

// Empty is the reply when no article matched.
func (f *Formatter) Empty(label string, since time.Time) string {
	return fmt.Sprintf("No articles tagged *%s* since %s.", Escape(label), since.In(f.loc).Format(dateLayout))
}

func (f *Formatter) header(label string, since time.Time, count int) string {
	noun := "articles"
	if count == 1 {
		noun = "article"
	}

	return fmt.Sprintf("*%d %s tagged %s since %s*", count, noun, Escape(label), since.In(f.loc).Format(dateLayout))
}

// Article renders one entry: a title link, the saved date, then an excerpt
// or the bare URL.
func (f *Formatter) Article(a domain.Article) string {
	var sb strings.Builder

	sb.WriteString("• ")
	sb.WriteString(Link(a.URL, a.DisplayTitle()))

	if !a.CreatedAt.IsZero() {
		sb.WriteString(" _(saved ")
		sb.WriteString(a.CreatedAt.In(f.loc).Format(dateLayout))
		sb.WriteString(")_")
	}

	if excerpt := links.Excerpt(a.Content, f.excerptRunes); excerpt != "" {
		sb.WriteString("\n> ")
		sb.WriteString(Escape(excerpt))
	} else if a.DisplayTitle() != a.URL {
		sb.WriteString("\n")
		sb.WriteString(Escape(a.URL))
	}

	return sb.String()
}

// Link renders a mrkdwn link. The label is escaped and may not contain "|".
func Link(rawURL, label string) string {
	label = strings.ReplaceAll(Escape(label), "|", "¦")
	if label == "" {
		label = Escape(rawURL)
	}

	return "<" + rawURL + "|" + label + ">"
}

// Escape escapes the characters Slack treats as control sequences.
func Escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}

// Split packs the header and blocks into messages of at most limit runes.
// Messages break only between blocks; a block that alone exceeds the limit
// is truncated to fit.
func Split(header string, blocks []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxChars
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if size > 0 {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
	}

	add := func(block string) {
		block = truncate(block, limit)
		n := utf8.RuneCountInString(block)

		if size > 0 && size+len(articleSeparator)+n > limit {
			flush()
		}

		if size > 0 {
			current.WriteString(articleSeparator)
			size += len(articleSeparator)
		}

		current.WriteString(block)
		size += n
	}

	if header != "" {
		add(header)
	}

	for _, b := range blocks {
		add(b)
	}

	flush()

	return parts
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:limit-utf8.RuneCountInString(truncatedMarker)])

	// Do not leave a dangling, half-written link.
	if open := strings.LastIndex(cut, "<"); open > strings.LastIndex(cut, ">") {
		cut = cut[:open]
	}

	return strings.TrimRight(cut, " \n") + truncatedMarker
}
