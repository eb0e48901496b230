// Package archive is the Wallabag v2 REST client used as the read-it-later
// archive.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/reading-bot/internal/core/domain"
	apperrors "github.com/lueurxax/reading-bot/internal/core/errors"
	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultPerPage    = 100
	tokenRefreshSkew  = 5 * time.Minute
	maxErrorBodyBytes = 512
	maxResponseBytes  = 16 << 20

	pathToken   = "/oauth/v2/token"
	pathEntries = "/api/entries.json"
	pathExists  = "/api/entries/exists.json"

	// Wallabag renders timestamps like 2024-01-05T10:11:12+0000.
	timestampLayout = "2006-01-02T15:04:05-0700"
)

// Operation names used as metric labels.
const (
	opToken  = "token"
	opExists = "exists"
	opSave   = "save"
	opList   = "list"
)

// Config holds Wallabag credentials and client tuning.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	Timeout      time.Duration
	PerPage      int
}

// Client implements ports.Archive against a Wallabag instance.
type Client struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	logger     *zerolog.Logger
	now        func() time.Time

	mu           sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

// New creates a Wallabag client. No request is made until first use.
func New(cfg Config, logger *zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if cfg.PerPage <= 0 {
		cfg.PerPage = defaultPerPage
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// token returns a cached bearer token, refreshing it shortly before expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpires) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathToken, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := c.do(req, opToken)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", apperrors.ErrArchiveAuth, status, truncate(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}

	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: no access token", apperrors.ErrArchiveAuth)
	}

	c.accessToken = tr.AccessToken
	c.tokenExpires = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenRefreshSkew)

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// authorized sends an authenticated request. A 401 drops the cached token
// and the request is sent once more with a fresh one.
func (c *Client) authorized(ctx context.Context, op string, build func() (*http.Request, error)) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := c.token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("create %s request: %w", op, err)
		}

		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Accept", "application/json")

		body, status, err := c.do(req, op)
		if err != nil {
			return nil, err
		}

		if status == http.StatusUnauthorized && attempt == 0 {
			c.invalidateToken()
			continue
		}

		if status < 200 || status >= 300 {
			return nil, fmt.Errorf("%w: %s: status %d: %s", apperrors.ErrArchiveStatus, op, status, truncate(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("%w: %s rejected after token refresh", apperrors.ErrArchiveAuth, op)
}

func (c *Client) do(req *http.Request, op string) ([]byte, int, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ArchiveRequestDuration.WithLabelValues(op, observability.StatusError).Observe(time.Since(start).Seconds())
		return nil, 0, fmt.Errorf("archive %s request: %w", op, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	observability.ArchiveRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read archive %s response: %w", op, err)
	}

	return body, resp.StatusCode, nil
}

// FindByURL asks the archive whether the URL is already stored.
func (c *Client) FindByURL(ctx context.Context, rawURL string) (int64, bool, error) {
	params := url.Values{}
	params.Set("url", rawURL)
	params.Set("return_id", "1")

	body, err := c.authorized(ctx, opExists, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathExists+"?"+params.Encode(), nil)
	})
	if err != nil {
		return 0, false, err
	}

	var resp struct {
		Exists json.RawMessage `json:"exists"`
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, false, fmt.Errorf("parse exists response: %w", err)
	}

	return parseExists(resp.Exists)
}

// parseExists handles both answer shapes: an entry id (or null) when
// return_id is honoured, a boolean otherwise.
func parseExists(raw json.RawMessage) (int64, bool, error) {
	value := strings.TrimSpace(string(raw))

	switch value {
	case "", "null", "false":
		return 0, false, nil
	case "true":
		return 0, true, nil
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse exists value %q: %w", value, err)
	}

	return id, true, nil
}

type saveRequest struct {
	URL  string `json:"url"`
	Tags string `json:"tags,omitempty"`
}

// Save creates an archive entry with the given tags.
func (c *Client) Save(ctx context.Context, rawURL string, tags []string) (domain.Article, error) {
	payload, err := json.Marshal(saveRequest{URL: rawURL, Tags: strings.Join(tags, ",")})
	if err != nil {
		return domain.Article{}, fmt.Errorf("marshal save request: %w", err)
	}

	body, err := c.authorized(ctx, opSave, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathEntries, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		req.Header.Set("Content-Type", "application/json")

		return req, nil
	})
	if err != nil {
		return domain.Article{}, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Article{}, apperrors.ErrEmptyResponse
	}

	var e entry
	if err := json.Unmarshal(body, &e); err != nil {
		return domain.Article{}, fmt.Errorf("parse save response: %w", err)
	}

	article := e.toDomain()
	if article.URL == "" {
		article.URL = rawURL
	}

	return article, nil
}

type listResponse struct {
	Page     int `json:"page"`
	Pages    int `json:"pages"`
	Total    int `json:"total"`
	Embedded struct {
		Items []entry `json:"items"`
	} `json:"_embedded"` //nolint:tagliatelle // Wallabag HAL envelope
}

// List returns articles carrying any of the query tags, created at or after
// Since, newest first. Wallabag ANDs multiple tags, so each tag is fetched on
// its own and the results merged.
func (c *Client) List(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	tags := q.Tags
	if len(tags) == 0 {
		tags = []string{""}
	}

	seen := make(map[int64]bool)

	var out []domain.Article

	for _, tag := range tags {
		items, err := c.listTag(ctx, tag, q.Since, q.Limit)
		if err != nil {
			return nil, err
		}

		for _, a := range items {
			if seen[a.ID] {
				continue
			}

			seen[a.ID] = true
			out = append(out, a)
		}
	}

	sortNewestFirst(out)

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

func (c *Client) listTag(ctx context.Context, tag string, since time.Time, limit int) ([]domain.Article, error) {
	var out []domain.Article

	for page := 1; ; page++ {
		resp, err := c.listPage(ctx, tag, since, page)
		if err != nil {
			return nil, err
		}

		for _, e := range resp.Embedded.Items {
			a := e.toDomain()

			// Results are ordered by creation time, so the first entry older
			// than the cutoff ends the scan. The API's since filter applies
			// to update time and lets older entries through.
			if !since.IsZero() && !a.CreatedAt.IsZero() && a.CreatedAt.Before(since) {
				return out, nil
			}

			out = append(out, a)

			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}

		if len(resp.Embedded.Items) == 0 || page >= resp.Pages {
			return out, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, tag string, since time.Time, page int) (*listResponse, error) {
	params := url.Values{}
	if tag != "" {
		params.Set("tags", tag)
	}

	if !since.IsZero() {
		params.Set("since", strconv.FormatInt(since.Unix(), 10))
	}

	params.Set("page", strconv.Itoa(page))
	params.Set("perPage", strconv.Itoa(c.cfg.PerPage))
	params.Set("sort", "created")
	params.Set("order", "desc")
	params.Set("detail", "full")

	body, err := c.authorized(ctx, opList, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathEntries+"?"+params.Encode(), nil)
	})
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse list response: %w", err)
	}

	c.logger.Debug().
		Str("tag", tag).
		Int("page", page).
		Int("pages", resp.Pages).
		Int("items", len(resp.Embedded.Items)).
		Msg("Fetched archive page")

	return &resp, nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyBytes {
		return s[:maxErrorBodyBytes] + "..."
	}

	return s
}
