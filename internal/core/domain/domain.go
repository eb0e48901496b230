package domain

import (
	"strings"
	"time"
)

// EmojiConfig binds a reaction emoji to the archive tag it applies and the
// confirmation posted after a successful save.
type EmojiConfig struct {
	Emoji   string
	Label   string
	Message string
}

// Article is an entry stored in the read-it-later archive.
type Article struct {
	ID          int64
	URL         string
	Title       string
	Content     string
	Domain      string
	Tags        []string
	ReadingTime int
	CreatedAt   time.Time
	PublishedAt time.Time
}

// HasTag reports whether the article carries the label, ignoring case.
func (a Article) HasTag(label string) bool {
	for _, t := range a.Tags {
		if strings.EqualFold(t, label) {
			return true
		}
	}

	return false
}

// DisplayTitle returns the title, falling back to the URL.
func (a Article) DisplayTitle() string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}

	return a.URL
}

// SaveRecord is one successful save as seen from the chat side.
type SaveRecord struct {
	URL       string
	Tag       string
	Emoji     string
	ChannelID string
	MessageTS string
	UserID    string
	ArchiveID int64
	CreatedAt time.Time
}

// NewsletterRun records a posted newsletter.
type NewsletterRun struct {
	RunAt        time.Time
	ArticleCount int
	ChannelID    string
}

// ArticleSummary is the generated blurb and interest score for one
// article. URL is the canonical form.
type ArticleSummary struct {
	URL       string
	Title     string
	Short     string
	Long      string
	Score     float64
	UpdatedAt time.Time
}

// Save outcome labels, used in logs and metrics.
const (
	SaveStatusSaved       = "saved"
	SaveStatusDuplicate   = "duplicate"
	SaveStatusNoURL       = "no_url"
	SaveStatusError       = "error"
	SaveStatusRateLimited = "rate_limited"
)

// ArticleQuery selects archive entries by tag and creation time.
type ArticleQuery struct {
	Tags  []string
	Since time.Time
	Limit int
}

// Message is a chat message as needed for link extraction. Attachment and
// block texts are kept apart so the text field can win.
type Message struct {
	ChannelID   string
	TS          string
	ThreadTS    string
	UserID      string
	Text        string
	Attachments []string
	Blocks      []string
}

// Sources returns the message texts in extraction order.
func (m Message) Sources() []string {
	out := make([]string, 0, 1+len(m.Attachments)+len(m.Blocks))
	out = append(out, m.Text)
	out = append(out, m.Attachments...)

	return append(out, m.Blocks...)
}
