package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/lueurxax/reading-bot/internal/core/emoji"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/schedule"
)

// Test environment variable keys.
const (
	testEnvBotToken      = "SLACK_BOT_TOKEN"
	testEnvSigningSecret = "SLACK_SIGNING_SECRET"
	testEnvWallabagURL   = "WALLABAG_URL"
	testEnvClientID      = "WALLABAG_CLIENT_ID"
	testEnvClientSecret  = "WALLABAG_CLIENT_SECRET"
	testEnvUsername      = "WALLABAG_USERNAME"
	testEnvPassword      = "WALLABAG_PASSWORD"
	testEnvEmojiConfig   = "EMOJI_CONFIG"
	testEnvTimezone      = "TIMEZONE"
)

// Test values.
const (
	testBotToken      = "xoxb-test"
	testSigningSecret = "shh"
	testWallabagURL   = "https://wallabag.example.com"
	testErrLoad       = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvBotToken, testBotToken)
	t.Setenv(testEnvSigningSecret, testSigningSecret)
	t.Setenv(testEnvWallabagURL, testWallabagURL)
	t.Setenv(testEnvClientID, "client")
	t.Setenv(testEnvClientSecret, "secret")
	t.Setenv(testEnvUsername, "reader")
	t.Setenv(testEnvPassword, "hunter2")
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{
		testEnvBotToken, testEnvSigningSecret, testEnvWallabagURL,
		testEnvClientID, testEnvClientSecret, testEnvUsername, testEnvPassword,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.SlackBotToken != testBotToken {
		t.Errorf("SlackBotToken = %q, want %q", cfg.SlackBotToken, testBotToken)
	}

	if cfg.WallabagURL != testWallabagURL {
		t.Errorf("WallabagURL = %q, want %q", cfg.WallabagURL, testWallabagURL)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}

	if cfg.RateLimitPerMinute != 20 {
		t.Errorf("RateLimitPerMinute = %d, want 20", cfg.RateLimitPerMinute)
	}

	if len(cfg.AllowedHosts) != 2 || cfg.AllowedHosts[0] != "localhost" || cfg.AllowedHosts[1] != "127.0.0.1" {
		t.Errorf("AllowedHosts = %v, want [localhost 127.0.0.1]", cfg.AllowedHosts)
	}

	if cfg.HandlerTimeout != 30*time.Second {
		t.Errorf("HandlerTimeout = %v, want 30s", cfg.HandlerTimeout)
	}

	if cfg.Emojis == nil || cfg.Emojis.Len() != 1 {
		t.Fatalf("Emojis = %+v, want default table", cfg.Emojis)
	}

	if _, ok := cfg.Emojis.Lookup(emoji.DefaultEmoji); !ok {
		t.Errorf("default emoji %q not configured", emoji.DefaultEmoji)
	}

	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}

	if cfg.NewsletterWeekday() != time.Friday {
		t.Errorf("NewsletterWeekday() = %v, want Friday", cfg.NewsletterWeekday())
	}
}

func TestLoad_EmojiConfig(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvEmojiConfig, "bookmark:Read Later:Saved!;books:ai:Filed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	entry, ok := cfg.Emojis.Lookup("bookmark")
	if !ok || entry.Label != "Read Later" || entry.Message != "Saved!" {
		t.Errorf("Lookup(bookmark) = %+v, %v", entry, ok)
	}

	labels := cfg.NewsletterLabels()
	if len(labels) != 2 || labels[0] != "Read Later" || labels[1] != "ai" {
		t.Errorf("NewsletterLabels() = %v, want [Read Later ai]", labels)
	}
}

func TestLoad_InvalidEmojiConfig(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvEmojiConfig, "bookmark:only-two")

	_, err := Load()
	if !errors.Is(err, apperrors.ErrInvalidEmojiConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidEmojiConfig", err)
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvTimezone, "Mars/Olympus_Mons")

	_, err := Load()
	if !errors.Is(err, apperrors.ErrInvalidTimezone) {
		t.Errorf("Load() error = %v, want ErrInvalidTimezone", err)
	}
}

func TestLoad_InvalidNewsletterSchedule(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr error
	}{
		{"NEWSLETTER_DAY", "someday", schedule.ErrInvalidWeekday},
		{"NEWSLETTER_HOUR", "24", schedule.ErrHourOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			setRequiredEnvVars(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_NewsletterDay(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("NEWSLETTER_DAY", "Mon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.NewsletterWeekday() != time.Monday {
		t.Errorf("NewsletterWeekday() = %v, want Monday", cfg.NewsletterWeekday())
	}
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed RATE_LIMIT_PER_MINUTE")
	}
}

func TestLoad_NewsletterTags(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("NEWSLETTER_TAGS", " ai , ,news ")
	t.Setenv("NEWSLETTER_DAY", "Monday")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	labels := cfg.NewsletterLabels()
	if len(labels) != 2 || labels[0] != "ai" || labels[1] != "news" {
		t.Errorf("NewsletterLabels() = %v, want [ai news]", labels)
	}

	if cfg.NewsletterWeekday() != time.Monday {
		t.Errorf("NewsletterWeekday() = %v, want Monday", cfg.NewsletterWeekday())
	}
}

func TestLoad_LegacyNewsletterTag(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("NEWSLETTER_TAG", "weekly")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	labels := cfg.NewsletterLabels()
	if len(labels) != 1 || labels[0] != "weekly" {
		t.Errorf("NewsletterLabels() = %v, want [weekly]", labels)
	}
}
