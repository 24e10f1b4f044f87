// Package generation talks to an OpenAI-compatible chat completion service.
// Every call runs under an explicit deadline; expiry is reported as
// domain.ErrGenerationTimeout, transport and API failures as
// domain.ErrGenerationService.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"learnquick/internal/domain"
)

// Config configures the generation client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
}

// Client implements domain.Generator on top of go-openai.
type Client struct {
	api        chatAPI
	model      string
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries int
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

// NewClient creates a generation client. The API key is read from cfg.APIKeyEnv.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	apiCfg := goopenai.DefaultConfig(key)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{}
	return newClient(goopenai.NewClientWithConfig(apiCfg), cfg, logger), nil
}

func newClient(api chatAPI, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-8b-instant"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Client{
		api:        api,
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Complete sends prompt as a single user message and returns the first choice's text.
// A reply without choices is returned as an empty string; callers treat it as malformed.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		text, err := c.complete(ctx, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) || attempt == c.maxRetries {
			break
		}
		c.logger.Warn("generation retry", "attempt", attempt+1, "err", err)
		if err := c.sleep(ctx, retryDelay(attempt)); err != nil {
			return "", fmt.Errorf("generation: %w: %w", domain.ErrGenerationService, err)
		}
	}
	return "", lastErr
}

func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		// Wait fails early, before the deadline passes, when the reservation would outlast it.
		if ctx.Err() == nil {
			return "", fmt.Errorf("generation: rate limit wait: %w: %w", domain.ErrGenerationTimeout, err)
		}
		return "", c.classify(callCtx, err)
	}
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", c.classify(callCtx, err)
	}
	c.logger.Debug("generation done", "model", c.model, "max_tokens", maxTokens,
		"completion_tokens", resp.Usage.CompletionTokens, "took", time.Since(start))
	if len(resp.Choices) == 0 {
		c.logger.Warn("generation returned no choices", "model", c.model)
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) classify(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || isNetTimeout(err) {
		return fmt.Errorf("generation: after %s: %w: %w", c.timeout, domain.ErrGenerationTimeout, err)
	}
	return fmt.Errorf("generation: %w: %w", domain.ErrGenerationService, err)
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func retryable(err error) bool {
	if errors.Is(err, domain.ErrGenerationTimeout) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 500 * time.Millisecond << attempt
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
