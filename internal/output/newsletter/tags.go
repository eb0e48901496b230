package newsletter

import (
	"sort"
	"strings"

	"github.com/lueurxax/reading-bot/internal/core/domain"
)

// TagSet is the set of archive tags that feed the newsletter. Membership is
// case-insensitive.
type TagSet struct {
	tags map[string]string
}

// NewTagSet builds a set from tag names. Blank names are dropped.
func NewTagSet(tags []string) TagSet {
	s := TagSet{tags: make(map[string]string, len(tags))}

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		key := strings.ToLower(t)
		if _, ok := s.tags[key]; !ok {
			s.tags[key] = t
		}
	}

	return s
}

// Contains reports whether tag is in the set.
func (s TagSet) Contains(tag string) bool {
	_, ok := s.tags[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Matches reports whether any of the article's tags is in the set.
func (s TagSet) Matches(a domain.Article) bool {
	for _, t := range a.Tags {
		if s.Contains(t) {
			return true
		}
	}

	return false
}

// Names returns the tags as first given, sorted.
func (s TagSet) Names() []string {
	out := make([]string, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// Len returns the number of tags.
func (s TagSet) Len() int {
	return len(s.tags)
}
