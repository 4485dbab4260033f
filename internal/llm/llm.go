// Package llm wraps the Gemini API behind a rate-limited, retrying caller.
// All requests share one pacing schedule so concurrent callers cannot exceed
// the configured requests-per-minute quota.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"hrdigest/internal/config"
	"hrdigest/internal/logger"
)

// ErrMissingAPIKey signals that no Gemini credential was configured. Callers
// treat it as "summarization disabled" rather than a hard failure.
var ErrMissingAPIKey = errors.New("gemini API key is required. Set GEMINI_API_KEY environment variable or gemini.api_key in config file")

// DefaultTemperature keeps structured extraction output stable across runs.
const DefaultTemperature = float32(0.3)

// minBackoff is the floor for any computed retry delay.
const minBackoff = 500 * time.Millisecond

// retryInHint matches the server's "retry in 12.3s" suggestion on 429 bodies.
var retryInHint = regexp.MustCompile(`retry in (\d+(?:\.\d+)?)s`)

// generateFunc performs one model call. Swapped out in tests.
type generateFunc func(ctx context.Context, model, prompt string) (string, error)

// Client is a pacing- and retry-aware Gemini caller.
type Client struct {
	gClient       *genai.Client
	model         string
	fallbackModel string
	maxRetries    int
	backoffBase   float64
	backoffJitter float64

	limiter  *rateLimiter
	generate generateFunc
	sleep    func(time.Duration)
}

// NewClient creates a Gemini client from configuration. It returns
// ErrMissingAPIKey when no credential is present so the pipeline can
// degrade to an empty enrichment set.
func NewClient(ctx context.Context, cfg config.Gemini) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		gClient:       gClient,
		model:         cfg.Model,
		fallbackModel: cfg.FallbackModel,
		maxRetries:    cfg.MaxRetries,
		backoffBase:   cfg.BackoffBase,
		backoffJitter: cfg.BackoffJitter,
		limiter:       newRateLimiter(cfg.RPM),
		sleep:         time.Sleep,
	}
	c.generate = c.generateContent
	return c, nil
}

// generateContent issues a single JSON-mode request against the given model.
func (c *Client) generateContent(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(DefaultTemperature),
		ResponseMIMEType: "application/json",
	}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return resp.Text(), nil
}

// Generate calls the primary model with retries, then repeats the full retry
// budget on the fallback model before giving up. The returned string is
// non-empty on success.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := c.generateWithRetries(ctx, c.model, prompt)
	if err == nil {
		return text, nil
	}
	if c.fallbackModel == "" || c.fallbackModel == c.model {
		return "", err
	}

	logger.Warn("Primary model exhausted, switching to fallback", "model", c.fallbackModel, "error", err)
	return c.generateWithRetries(ctx, c.fallbackModel, prompt)
}

// generateWithRetries runs the bounded retry loop for one model. Transient
// failures (rate limits, timeouts, empty responses) are retried with backoff;
// anything else propagates immediately.
func (c *Client) generateWithRetries(ctx context.Context, model, prompt string) (string, error) {
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.limiter.wait(ctx); err != nil {
			return "", err
		}

		text, err := c.generate(ctx, model, prompt)
		if err == nil && text != "" {
			return text, nil
		}

		if err == nil {
			// An empty completion with no error is worth another attempt.
			lastErr = fmt.Errorf("empty response from model %s", model)
			c.sleep(c.exponentialDelay(attempt))
			continue
		}

		delay, retryable := c.classify(err, attempt)
		if !retryable {
			return "", err
		}
		lastErr = err
		logger.Warn("Model call failed, retrying", "model", model, "attempt", attempt+1, "delay", delay, "error", err)
		c.sleep(delay)
	}

	return "", fmt.Errorf("model %s failed after %d attempts: %w", model, attempts, lastErr)
}

// classify decides whether an error is transient and what delay to apply.
func (c *Client) classify(err error, attempt int) (time.Duration, bool) {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted"):
		if hint := serverRetryHint(msg); hint > 0 {
			// Honor the server's suggested delay plus a little jitter so
			// parallel callers fan back out.
			return hint + time.Duration(rand.Float64()*500)*time.Millisecond, true
		}
		return c.exponentialDelay(attempt), true
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporar") || strings.Contains(msg, "unavailable"):
		return 1500*time.Millisecond + time.Duration(rand.Float64()*500)*time.Millisecond, true
	default:
		return 0, false
	}
}

// exponentialDelay computes base*2^attempt seconds with +/- jitter, clamped
// to minBackoff.
func (c *Client) exponentialDelay(attempt int) time.Duration {
	base := c.backoffBase
	if base <= 0 {
		base = 2.0
	}
	secs := base * math.Pow(2, float64(attempt))
	if c.backoffJitter > 0 {
		secs *= 1 + (rand.Float64()*2-1)*c.backoffJitter
	}
	d := time.Duration(secs * float64(time.Second))
	if d < minBackoff {
		d = minBackoff
	}
	return d
}

// serverRetryHint extracts the delay a 429 body suggests, or 0 when absent.
func serverRetryHint(msg string) time.Duration {
	m := retryInHint.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// rateLimiter paces calls to a fixed requests-per-minute budget. It tracks a
// single "earliest next call" instant and advances it on every acquisition,
// which keeps ordering fair under concurrency.
type rateLimiter struct {
	mu       sync.Mutex
	next     time.Time
	interval time.Duration
	now      func() time.Time
}

func newRateLimiter(rpm int) *rateLimiter {
	if rpm <= 0 {
		rpm = 10
	}
	return &rateLimiter{
		interval: time.Minute / time.Duration(rpm),
		now:      time.Now,
	}
}

// wait blocks until the caller may issue a request, or until the context is
// canceled.
func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	now := r.now()
	start := r.next
	if start.Before(now) {
		start = now
	}
	r.next = start.Add(r.interval)
	r.mu.Unlock()

	wait := start.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
