// Package llm wraps an OpenAI-compatible chat completion endpoint used for
// short editorial text such as the newsletter intro.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/reading-bot/internal/platform/observability"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// ErrEmptyCompletion indicates the model returned no text.
var ErrEmptyCompletion = errors.New("empty completion")

const (
	DefaultModel = "gpt-4o-mini"

	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	requestsPerSecond       = 1
	rateLimiterBurst        = 2
	maxCompletionTokens     = 400
	completionTemperature   = 0.7

	errRateLimiter = "rate limiter error: %w"
)

// Config selects the endpoint and model.
type Config struct {
	APIKey string
	Model  string
	// BaseURL points at an OpenAI-compatible API; empty means api.openai.com.
	BaseURL string
}

// OpenAI is a chat completion client with a small circuit breaker.
type OpenAI struct {
	client      *openai.Client
	model       string
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a client for cfg.
func NewOpenAI(cfg Config, logger *zerolog.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), rateLimiterBurst),
	}
}

func (c *OpenAI) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *OpenAI) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *OpenAI) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

// Complete sends a system and a user message and returns the reply text.
func (c *OpenAI) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}

	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxCompletionTokens,
		Temperature: completionTemperature,
	})

	observability.LLMRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("Chat completion finished")

	return text, nil
}
