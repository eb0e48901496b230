package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/links"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

const (
	summaryTimeout       = 30 * time.Second
	summaryContentRunes  = 1500
	summaryExamples      = 5
	shortSummaryRunes    = 320
	longSummaryRunes     = 900
	maxInterestScore     = 100
	summarySystemMessage = "You summarise articles for a team's weekly reading list. " +
		"Reply with a single JSON object and nothing else: " +
		`{"interest_score": <number 0-100>, "short_summary": "<2-3 sentences>", "long_summary": "<5-6 sentences>"}. ` +
		"The score rates how interesting the article is for the team. Keep scores consistent with the scored examples."
)

var errIncompleteSummary = errors.New("summary reply is missing a field")

type summaryReply struct {
	InterestScore float64 `json:"interest_score"`
	ShortSummary  string  `json:"short_summary"`
	LongSummary   string  `json:"long_summary"`
}

// Summary returns the generated summary for a, if any.
func (i Issue) Summary(a domain.Article) (domain.ArticleSummary, bool) {
	s, ok := i.Summaries[links.Canonical(a.URL)]

	return s, ok
}

// summarize returns a summary per article keyed by canonical URL. Cached
// summaries are reused and new ones are cached. Articles without content
// or with an unusable reply are left out.
func (b *Builder) summarize(ctx context.Context, articles []domain.Article) map[string]domain.ArticleSummary {
	out := make(map[string]domain.ArticleSummary, len(articles))
	if b.writer == nil {
		return out
	}

	keys := make([]string, len(articles))
	for i, a := range articles {
		keys[i] = links.Canonical(a.URL)
	}

	cached := b.cachedSummaries(ctx, keys)
	examples := b.summaryExamples(ctx)

	for i, a := range articles {
		key := keys[i]

		if s, ok := cached[key]; ok {
			observability.ArticleSummaries.WithLabelValues(observability.SummarySourceCache).Inc()

			out[key] = s

			continue
		}

		if links.PlainText(a.Content) == "" {
			continue
		}

		if ctx.Err() != nil {
			break
		}

		s, err := b.summarizeArticle(ctx, a, examples)
		if err != nil {
			observability.ArticleSummaries.WithLabelValues(observability.SummarySourceFailed).Inc()
			b.logger.Warn().Err(err).Str("url", a.URL).Msg("Article summary failed, using excerpt")

			continue
		}

		observability.ArticleSummaries.WithLabelValues(observability.SummarySourceGenerated).Inc()

		s.URL = key
		out[key] = s

		if b.cache != nil {
			if err := b.cache.SaveSummary(ctx, s); err != nil {
				b.logger.Warn().Err(err).Str("url", a.URL).Msg("Failed to cache article summary")
			}
		}
	}

	return out
}

func (b *Builder) cachedSummaries(ctx context.Context, keys []string) map[string]domain.ArticleSummary {
	if b.cache == nil {
		return nil
	}

	cached, err := b.cache.Summaries(ctx, keys)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to read cached summaries")
		return nil
	}

	return cached
}

func (b *Builder) summaryExamples(ctx context.Context) []domain.ArticleSummary {
	if b.cache == nil {
		return nil
	}

	top, err := b.cache.TopSummaries(ctx, summaryExamples)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to read scored examples")
		return nil
	}

	return top
}

func (b *Builder) summarizeArticle(ctx context.Context, a domain.Article, examples []domain.ArticleSummary) (domain.ArticleSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	text, err := b.writer.Complete(ctx, summarySystemMessage, summaryPrompt(a, examples))
	if err != nil {
		return domain.ArticleSummary{}, fmt.Errorf("generating summary: %w", err)
	}

	s, err := parseSummary(text)
	if err != nil {
		return domain.ArticleSummary{}, err
	}

	s.Title = a.DisplayTitle()

	return s, nil
}

func summaryPrompt(a domain.Article, examples []domain.ArticleSummary) string {
	var sb strings.Builder

	if len(examples) > 0 {
		sb.WriteString("Scored examples:\n")

		for _, ex := range examples {
			fmt.Fprintf(&sb, "- [%.0f] %s: %s\n", ex.Score, ex.Title, ex.Short)
		}

		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Title: %s\nURL: %s\nContent:\n%s\n", a.DisplayTitle(), a.URL, links.Truncate(links.PlainText(a.Content), summaryContentRunes))

	return sb.String()
}

// parseSummary reads the JSON object out of a reply that may carry
// surrounding prose or code fences.
func parseSummary(text string) (domain.ArticleSummary, error) {
	var reply summaryReply
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		return domain.ArticleSummary{}, fmt.Errorf("parsing summary reply: %w", err)
	}

	short := strings.Join(strings.Fields(reply.ShortSummary), " ")
	long := strings.Join(strings.Fields(reply.LongSummary), " ")

	if short == "" || long == "" {
		return domain.ArticleSummary{}, errIncompleteSummary
	}

	return domain.ArticleSummary{
		Short: links.Truncate(short, shortSummaryRunes),
		Long:  links.Truncate(long, longSummaryRunes),
		Score: min(max(reply.InterestScore, 0), maxInterestScore),
	}, nil
}

func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

// rankBySummary orders summarised articles by descending score ahead of
// the rest. Ties and unsummarised articles keep their recency order.
func rankBySummary(articles []domain.Article, summaries map[string]domain.ArticleSummary) []domain.Article {
	if len(summaries) == 0 {
		return articles
	}

	type ranked struct {
		article domain.Article
		summary domain.ArticleSummary
		ok      bool
	}

	items := make([]ranked, len(articles))
	for i, a := range articles {
		s, ok := summaries[links.Canonical(a.URL)]
		items[i] = ranked{article: a, summary: s, ok: ok}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}

		return items[i].summary.Score > items[j].summary.Score
	})

	out := make([]domain.Article, len(items))
	for i, it := range items {
		out[i] = it.article
	}

	return out
}
