package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lueurxax/reading-bot/internal/core/emoji"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/schedule"
)

type Config struct {
	AppEnv       string   `env:"APP_ENV" envDefault:"local"`
	Port         int      `env:"PORT" envDefault:"8000"`
	AllowedHosts []string `env:"ALLOWED_HOSTS" envSeparator:"," envDefault:"localhost,127.0.0.1"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
	Timezone     string   `env:"TIMEZONE" envDefault:"UTC"`

	// Slack
	SlackBotToken      string        `env:"SLACK_BOT_TOKEN,required"`
	SlackSigningSecret string        `env:"SLACK_SIGNING_SECRET,required"`
	SlackAPIURL        string        `env:"SLACK_API_URL"`
	HandlerTimeout     time.Duration `env:"HANDLER_TIMEOUT" envDefault:"30s"`
	MessageMaxChars    int           `env:"MESSAGE_MAX_CHARS" envDefault:"3000"`
	PostPartsPerSecond float64       `env:"POST_PARTS_PER_SECOND" envDefault:"1"`

	// Archive (Wallabag)
	WallabagURL          string        `env:"WALLABAG_URL,required"`
	WallabagClientID     string        `env:"WALLABAG_CLIENT_ID,required"`
	WallabagClientSecret string        `env:"WALLABAG_CLIENT_SECRET,required"`
	WallabagUsername     string        `env:"WALLABAG_USERNAME,required"`
	WallabagPassword     string        `env:"WALLABAG_PASSWORD,required"`
	ArchiveTimeout       time.Duration `env:"ARCHIVE_TIMEOUT" envDefault:"10s"`

	// Behaviour
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	EmojiConfig        string `env:"EMOJI_CONFIG"`
	QueryDefaultDays   int    `env:"QUERY_DEFAULT_DAYS" envDefault:"7"`
	QueryMaxResults    int    `env:"QUERY_MAX_RESULTS" envDefault:"50"`

	// Newsletter
	NewsletterTags       []string `env:"NEWSLETTER_TAGS" envSeparator:","`
	NewsletterChannel    string   `env:"NEWSLETTER_CHANNEL"`
	NewsletterDay        string   `env:"NEWSLETTER_DAY" envDefault:"friday"`
	NewsletterHour       int      `env:"NEWSLETTER_HOUR" envDefault:"9"`
	NewsletterMinDays    int      `env:"NEWSLETTER_MIN_DAYS" envDefault:"14"`
	NewsletterMaxDays    int      `env:"NEWSLETTER_MAX_DAYS" envDefault:"28"`
	NewsletterMinItems   int      `env:"NEWSLETTER_MIN_ITEMS" envDefault:"10"`
	NewsletterMaxItems   int      `env:"NEWSLETTER_MAX_ITEMS" envDefault:"50"`
	NewsletterLongItems  int      `env:"NEWSLETTER_LONG_ITEMS" envDefault:"3"`
	NewsletterShortItems int      `env:"NEWSLETTER_SHORT_ITEMS" envDefault:"4"`

	// LLM (optional newsletter intro)
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL string `env:"LLM_BASE_URL"`

	// Storage (optional save log)
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"5"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"0"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Derived during Load.
	Emojis   *emoji.Table   `env:"-"`
	Location *time.Location `env:"-"`

	newsletterDay time.Weekday
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// finalize parses the derived settings. Malformed values are startup errors.
func (c *Config) finalize() error {
	table, err := emoji.Parse(c.EmojiConfig)
	if err != nil {
		return fmt.Errorf("parsing EMOJI_CONFIG: %w", err)
	}

	c.Emojis = table

	loc, err := schedule.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", apperrors.ErrInvalidTimezone, c.Timezone, err)
	}

	c.Location = loc

	day, err := schedule.ParseWeekday(c.NewsletterDay)
	if err != nil {
		return fmt.Errorf("parsing NEWSLETTER_DAY: %w", err)
	}

	if err := (schedule.Weekly{Day: day, Hour: c.NewsletterHour}).Validate(); err != nil {
		return fmt.Errorf("parsing NEWSLETTER_HOUR: %w", err)
	}

	c.newsletterDay = day
	c.AllowedHosts = cleanList(c.AllowedHosts)
	c.NewsletterTags = cleanList(c.NewsletterTags)

	return nil
}

// NewsletterLabels returns the configured newsletter tags, defaulting to
// every label in the emoji table.
func (c *Config) NewsletterLabels() []string {
	if len(c.NewsletterTags) > 0 {
		return c.NewsletterTags
	}

	if c.Emojis == nil {
		return nil
	}

	return c.Emojis.Labels()
}

// NewsletterWeekday returns the day parsed from NEWSLETTER_DAY.
func (c *Config) NewsletterWeekday() time.Weekday {
	return c.newsletterDay
}

// applyLegacyAliases honours the single-tag variables used by earlier
// deployments.
func applyLegacyAliases(cfg *Config) {
	if len(cfg.NewsletterTags) == 0 {
		if val, ok := os.LookupEnv("NEWSLETTER_TAG"); ok && strings.TrimSpace(val) != "" {
			cfg.NewsletterTags = []string{val}
		}
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))

	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}

	return out
}
