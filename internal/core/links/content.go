package links

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const ellipsis = "…"

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"iframe": true, "svg": true, "figure": true, "template": true,
}

// blockElements end a run of text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "section": true, "article": true,
}

// PlainText renders archived article HTML as whitespace-collapsed text.
// Input that is not HTML comes back normalized.
func PlainText(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return collapseSpaces(content)
	}

	var sb strings.Builder

	z := html.NewTokenizer(strings.NewReader(content))
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseSpaces(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if skippedElements[tag] {
				skipDepth++
			}

			if blockElements[tag] {
				sb.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if skippedElements[tag] && skipDepth > 0 {
				skipDepth--
			}

			if blockElements[tag] {
				sb.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// Excerpt returns at most maxRunes of the plain text, cut at a word
// boundary and marked with an ellipsis when shortened.
func Excerpt(content string, maxRunes int) string {
	text := PlainText(content)

	return Truncate(text, maxRunes)
}

// Truncate shortens text to maxRunes, preferring the last word boundary.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxRunes])

	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > len(cut)/2 {
		cut = cut[:idx]
	}

	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + ellipsis
}

// WordCount counts whitespace separated words of the plain text.
func WordCount(content string) int {
	return len(strings.Fields(PlainText(content)))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
