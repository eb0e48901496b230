package newsletter

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	"github.com/lueurxax/reading-bot/internal/core/links"
	"github.com/lueurxax/reading-bot/internal/output/reply"
)

const (
	longExcerptRunes  = 400
	shortExcerptRunes = 160
	dateLayout        = "Jan 2, 2006"

	headingFeatured   = "*Featured*"
	headingQuickReads = "*Quick reads*"
	headingAlso       = "*Also worth checking*"
)

// render lays the issue out as Featured, Quick reads and a tag-grouped
// link list, split into chat-sized parts.
func (b *Builder) render(issue Issue) []string {
	since := issue.Since.In(b.cfg.Location).Format(dateLayout)

	if len(issue.Articles) == 0 {
		return []string{fmt.Sprintf("No new articles for the newsletter since %s.", since)}
	}

	header := fmt.Sprintf("*Reading list: %d %s since %s*", len(issue.Articles), plural(len(issue.Articles)), since)
	if issue.Intro != "" {
		header += "\n" + reply.Escape(issue.Intro)
	}

	featured, quick, rest := b.sections(issue)

	blocks := make([]string, 0, len(issue.Articles))
	blocks = appendSection(blocks, headingFeatured, featured, func(a domain.Article) string {
		return articleBlock(a, blurb(issue, a, true), "\n> ")
	})
	blocks = appendSection(blocks, headingQuickReads, quick, func(a domain.Article) string {
		return articleBlock(a, blurb(issue, a, false), " · ")
	})

	titleCaser := cases.Title(language.English)

	for i, group := range b.groupByTag(rest) {
		heading := "_" + reply.Escape(titleCaser.String(group.tag)) + "_"
		if i == 0 {
			heading = headingAlso + "\n" + heading
		}

		blocks = appendSection(blocks, heading, group.articles, linkLine)
	}

	return reply.Split(header, blocks, b.cfg.MaxChars)
}

// sections splits articles into featured, quick reads and the rest. Only
// articles with a summary or content qualify for the first two.
func (b *Builder) sections(issue Issue) (featured, quick, rest []domain.Article) {
	for _, a := range issue.Articles {
		_, summarized := issue.Summary(a)
		hasText := summarized || links.PlainText(a.Content) != ""

		switch {
		case hasText && len(featured) < b.cfg.LongItems:
			featured = append(featured, a)
		case hasText && len(quick) < b.cfg.ShortItems:
			quick = append(quick, a)
		default:
			rest = append(rest, a)
		}
	}

	return featured, quick, rest
}

type tagGroup struct {
	tag      string
	articles []domain.Article
}

// groupByTag files each article under the first newsletter tag it carries,
// in tag order. Articles outside the set are grouped under their own first
// tag after the others.
func (b *Builder) groupByTag(articles []domain.Article) []tagGroup {
	names := b.tags.Names()
	byTag := make(map[string][]domain.Article, len(names))

	var order []string

	for _, a := range articles {
		tag := b.primaryTag(a, names)
		if _, ok := byTag[tag]; !ok {
			order = append(order, tag)
		}

		byTag[tag] = append(byTag[tag], a)
	}

	groups := make([]tagGroup, 0, len(order))

	for _, name := range names {
		if arts, ok := byTag[name]; ok {
			groups = append(groups, tagGroup{tag: name, articles: arts})
			delete(byTag, name)
		}
	}

	for _, name := range order {
		if arts, ok := byTag[name]; ok {
			groups = append(groups, tagGroup{tag: name, articles: arts})
		}
	}

	return groups
}

func (b *Builder) primaryTag(a domain.Article, names []string) string {
	for _, name := range names {
		if a.HasTag(name) {
			return name
		}
	}

	if len(a.Tags) > 0 {
		return a.Tags[0]
	}

	return "other"
}

func appendSection(blocks []string, heading string, articles []domain.Article, render func(domain.Article) string) []string {
	for i, a := range articles {
		block := render(a)
		if i == 0 {
			block = heading + "\n" + block
		}

		blocks = append(blocks, block)
	}

	return blocks
}

// blurb is the article's generated summary, or an excerpt of its content
// when it has none.
func blurb(issue Issue, a domain.Article, long bool) string {
	if s, ok := issue.Summary(a); ok {
		if long {
			return s.Long
		}

		return s.Short
	}

	if long {
		return links.Excerpt(a.Content, longExcerptRunes)
	}

	return links.Excerpt(a.Content, shortExcerptRunes)
}

func articleBlock(a domain.Article, text, sep string) string {
	line := linkLine(a)

	if text != "" {
		line += sep + reply.Escape(text)
	}

	return line
}

func linkLine(a domain.Article) string {
	line := "• " + reply.Link(a.URL, a.DisplayTitle())

	domainName := a.Domain
	if domainName == "" {
		domainName = links.Domain(a.URL)
	}

	if domainName != "" && !strings.Contains(a.DisplayTitle(), domainName) {
		line += " (" + reply.Escape(domainName) + ")"
	}

	return line
}

func plural(n int) string {
	if n == 1 {
		return "article"
	}

	return "articles"
}
