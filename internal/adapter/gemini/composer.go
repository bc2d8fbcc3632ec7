// Package gemini generates post and reply text with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/gbdavies1992-hash/gomining-bot/internal/adapter/metrics"
	"github.com/gbdavies1992-hash/gomining-bot/internal/domain"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/retry"
)

const (
	serviceLabel = "gemini"

	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 30 * time.Second
)

var errEmptyResponse = errors.New("gemini returned no text")

// DefaultPolicy retries transient failures twice and waits longer when rate limited.
var DefaultPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   2 * time.Second,
	RateLimitBackoff: 20 * time.Second,
}

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Composer implements domain.Composer.
type Composer struct {
	models  generator
	model   string
	timeout time.Duration
	policy  retry.Policy
	metrics *metrics.UpstreamMetrics
}

// NewComposer creates a Gemini client. m may be nil.
func NewComposer(ctx context.Context, cfg Config, m *metrics.UpstreamMetrics) (*Composer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newComposer(client.Models, cfg, m), nil
}

func newComposer(models generator, cfg Config, m *metrics.UpstreamMetrics) *Composer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Composer{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		policy:  DefaultPolicy,
		metrics: m,
	}
	c.policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Gemini call failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if c.metrics != nil {
			c.metrics.RetriesTotal.WithLabelValues(serviceLabel).Inc()
		}
	}
	return c
}

func (c *Composer) Model() string {
	return c.model
}

// Generate returns the trimmed model output for prompt.
func (c *Composer) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := retry.Do(ctx, c.policy, classify, func(ctx context.Context) (string, error) {
		return c.generateOnce(ctx, prompt)
	})
	if err != nil {
		return "", apperrors.UpstreamError("gemini generate failed", err).WithField("model", c.model)
	}
	return text, nil
}

func (c *Composer) generateOnce(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(prompt), nil)
	if err == nil {
		if text := strings.TrimSpace(resp.Text()); text != "" {
			c.observe(start, nil)
			return text, nil
		}
		err = errEmptyResponse
	}
	c.observe(start, err)
	return "", err
}

func (c *Composer) observe(start time.Time, err error) {
	if c.metrics != nil {
		c.metrics.Observe(serviceLabel, "generate", time.Since(start).Seconds(), err)
	}
}

// classify maps Gemini failures to retry actions: 429 waits out the rate
// limit, 5xx and transport errors retry, other API errors and empty
// (usually blocked) responses stop.
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, errEmptyResponse) {
		return retry.Stop
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code)
	}
	return retry.Retry
}

func classifyStatus(code int) retry.Action {
	switch {
	case code == http.StatusTooManyRequests:
		return retry.After
	case code >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

var _ domain.Composer = (*Composer)(nil)
