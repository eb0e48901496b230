// Package emoji parses the reaction configuration that maps emojis to archive
// tags and confirmation messages.
package emoji

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
)

// Config string delimiters.
const (
	entrySeparator = ";"
	fieldSeparator = ":"
	fieldsPerEntry = 3
	skinToneMarker = "::skin-tone-"
)

// Default entry used when no configuration is provided.
const (
	DefaultEmoji   = "bookmark"
	DefaultLabel   = "slack-import"
	DefaultMessage = "Saved to the reading list!"
)

// Table is the parsed emoji configuration keyed by emoji name.
type Table struct {
	entries map[string]domain.EmojiConfig
}

// Default returns a table holding only the default entry.
func Default() *Table {
	return &Table{entries: map[string]domain.EmojiConfig{
		DefaultEmoji: {Emoji: DefaultEmoji, Label: DefaultLabel, Message: DefaultMessage},
	}}
}

// Parse reads "emoji:label:message;emoji:label:message". A blank string
// yields the default table.
func Parse(raw string) (*Table, error) {
	if strings.TrimSpace(raw) == "" {
		return Default(), nil
	}

	t := &Table{entries: make(map[string]domain.EmojiConfig)}

	for i, segment := range strings.Split(raw, entrySeparator) {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		entry, err := parseEntry(segment)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}

		if _, exists := t.entries[entry.Emoji]; exists {
			return nil, fmt.Errorf("%w: %w: %q", apperrors.ErrInvalidEmojiConfig, apperrors.ErrDuplicateEmoji, entry.Emoji)
		}

		t.entries[entry.Emoji] = entry
	}

	if len(t.entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", apperrors.ErrInvalidEmojiConfig)
	}

	return t, nil
}

func parseEntry(segment string) (domain.EmojiConfig, error) {
	fields := strings.SplitN(segment, fieldSeparator, fieldsPerEntry)
	if len(fields) != fieldsPerEntry {
		return domain.EmojiConfig{}, fmt.Errorf("%w: %q needs emoji:label:message", apperrors.ErrInvalidEmojiConfig, strings.TrimSpace(segment))
	}

	entry := domain.EmojiConfig{
		Emoji:   strings.TrimSpace(fields[0]),
		Label:   strings.TrimSpace(fields[1]),
		Message: strings.TrimSpace(fields[2]),
	}

	switch {
	case entry.Emoji == "":
		return entry, fmt.Errorf("%w: empty emoji", apperrors.ErrInvalidEmojiConfig)
	case strings.ContainsAny(entry.Emoji, " \t\n"):
		return entry, fmt.Errorf("%w: emoji %q contains whitespace", apperrors.ErrInvalidEmojiConfig, entry.Emoji)
	case entry.Label == "":
		return entry, fmt.Errorf("%w: empty label for %q", apperrors.ErrInvalidEmojiConfig, entry.Emoji)
	case entry.Message == "":
		return entry, fmt.Errorf("%w: empty message for %q", apperrors.ErrInvalidEmojiConfig, entry.Emoji)
	}

	return entry, nil
}

// Lookup resolves a reaction name. Skin tone variants and surrounding colons
// are ignored, so "thumbsup::skin-tone-3" matches "thumbsup".
func (t *Table) Lookup(reaction string) (domain.EmojiConfig, bool) {
	entry, ok := t.entries[Normalize(reaction)]
	return entry, ok
}

// LookupLabel finds the entry whose label matches, ignoring case.
func (t *Table) LookupLabel(label string) (domain.EmojiConfig, bool) {
	for _, e := range t.entries {
		if strings.EqualFold(e.Label, strings.TrimSpace(label)) {
			return e, true
		}
	}

	return domain.EmojiConfig{}, false
}

// Len returns the number of configured emojis.
func (t *Table) Len() int {
	return len(t.entries)
}

// Emojis returns the configured emoji names in sorted order.
func (t *Table) Emojis() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Entries returns all entries sorted by emoji.
func (t *Table) Entries() []domain.EmojiConfig {
	out := make([]domain.EmojiConfig, 0, len(t.entries))
	for _, name := range t.Emojis() {
		out = append(out, t.entries[name])
	}

	return out
}

// Labels returns the distinct labels in sorted order.
func (t *Table) Labels() []string {
	seen := make(map[string]bool, len(t.entries))
	labels := make([]string, 0, len(t.entries))

	for _, e := range t.entries {
		if seen[e.Label] {
			continue
		}

		seen[e.Label] = true
		labels = append(labels, e.Label)
	}

	sort.Strings(labels)

	return labels
}

// Only returns the single entry when exactly one emoji is configured.
func (t *Table) Only() (domain.EmojiConfig, bool) {
	if len(t.entries) != 1 {
		return domain.EmojiConfig{}, false
	}

	for _, e := range t.entries {
		return e, true
	}

	return domain.EmojiConfig{}, false
}

// Normalize strips colons, whitespace and skin tone suffixes from a reaction name.
func Normalize(reaction string) string {
	name := strings.TrimSpace(reaction)

	if idx := strings.Index(name, skinToneMarker); idx >= 0 {
		name = name[:idx]
	}

	return strings.Trim(name, ":")
}
