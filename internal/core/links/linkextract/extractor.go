package linkextract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

type Link struct {
	URL      string
	Domain   string
	Label    string
	Position int
}

var (
	urlRegex = regexp.MustCompile(`https?://[^\s<>"{}|\\^\x60\[\]]+`)
	// Slack wraps links as <https://x.y|label> or <https://x.y>.
	slackLinkRegex = regexp.MustCompile(`<(https?://[^|>\s]+)(?:\|([^>]*))?>`)
)

var entityReplacer = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">")

// ExtractLinks returns the distinct HTTP(S) links in text, in order of
// appearance. Slack link markup is unwrapped and its label kept.
func ExtractLinks(text string) []Link {
	var links []Link

	seen := make(map[string]bool)

	add := func(raw, label string, pos int) {
		normalized := normalizeURL(raw)
		if normalized == "" || seen[normalized] || !IsValid(normalized) {
			return
		}

		seen[normalized] = true
		links = append(links, Link{
			URL:      normalized,
			Domain:   extractDomain(normalized),
			Label:    strings.TrimSpace(label),
			Position: pos,
		})
	}

	for _, m := range slackLinkRegex.FindAllStringSubmatchIndex(text, -1) {
		label := ""
		if m[4] >= 0 {
			label = text[m[4]:m[5]]
		}

		add(text[m[2]:m[3]], label, m[0])
	}

	// Blank out Slack markup so bare-URL matching does not see it twice.
	stripped := slackLinkRegex.ReplaceAllStringFunc(text, func(s string) string {
		return strings.Repeat(" ", len(s))
	})

	for _, m := range urlRegex.FindAllStringIndex(stripped, -1) {
		add(stripped[m[0]:m[1]], "", m[0])
	}

	sortByPosition(links)

	return links
}

// FirstURL returns the first valid URL in text.
func FirstURL(text string) (string, bool) {
	links := ExtractLinks(text)
	if len(links) == 0 {
		return "", false
	}

	return links[0].URL, true
}

// FirstURLIn searches sources in order and returns the first valid URL found.
func FirstURLIn(sources ...string) (string, bool) {
	for _, s := range sources {
		if u, ok := FirstURL(s); ok {
			return u, true
		}
	}

	return "", false
}

// IsValid reports whether raw is an absolute http or https URL with a host.
func IsValid(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, `"'`)
	raw = entityReplacer.Replace(raw)
	raw = strings.TrimRight(raw, ".,;:!?)>")

	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}

	return ""
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}

func sortByPosition(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].Position < links[j].Position
	})
}
