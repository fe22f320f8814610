package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"outlet-insights-go/internal/config"
	"outlet-insights-go/internal/logger"
)

// Client sends one chat turn with supporting context lines.
type Client interface {
	Chat(ctx context.Context, message string, contextLines []string) (string, error)
}

var ErrEmptyReply = errors.New("llm returned no content")

// NewClient returns the mock client when USE_MOCK_LLM is set, otherwise
// the gateway client.
func NewClient(cfg config.LLMConfig) Client {
	if cfg.UseMock {
		return MockClient{}
	}
	return NewGatewayClient(cfg.GatewayURL, cfg.APIKey, cfg.Model,
		WithHTTPTimeout(cfg.Timeout), WithMaxRetryTime(cfg.MaxRetryTime))
}

// GatewayClient talks to an OpenAI-style chat completions endpoint.
type GatewayClient struct {
	url, apiKey, model string

	http       *http.Client
	newBackOff func() backoff.BackOff
	breaker    *gobreaker.CircuitBreaker[string]
	log        *logrus.Entry
}

type Option func(*GatewayClient)

func WithHTTPTimeout(d time.Duration) Option {
	return func(c *GatewayClient) { c.http.Timeout = d }
}

// WithMaxRetryTime bounds the exponential retry loop.
func WithMaxRetryTime(d time.Duration) Option {
	return func(c *GatewayClient) {
		c.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = d
			return b
		}
	}
}

// WithBackOff replaces the retry policy (tests use a constant backoff).
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *GatewayClient) { c.newBackOff = fn }
}

func NewGatewayClient(url, apiKey, model string, opts ...Option) *GatewayClient {
	c := &GatewayClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{Timeout: 25 * time.Second},
		log:    logger.New().Component("assistant"),
	}
	WithMaxRetryTime(45 * time.Second)(c)
	for _, o := range opts {
		o(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return c
}

const systemPrompt = `You are a sales assistant for beverage field representatives.
Answer briefly and practically. Use only the outlet facts below; do not invent numbers.`

func (c *GatewayClient) Chat(ctx context.Context, message string, contextLines []string) (string, error) {
	prompt := systemPrompt
	if len(contextLines) > 0 {
		prompt += "\n\nOUTLET FACTS:\n- " + strings.Join(contextLines, "\n- ")
	}
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
			{"role": "user", "content": message},
		},
		"temperature": 0.2,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	return c.breaker.Execute(func() (string, error) {
		return c.send(ctx, data)
	})
}

func (c *GatewayClient) send(ctx context.Context, data []byte) (string, error) {
	var reply string
	var lastErr error

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		c.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("llm gateway status %d: %s", resp.StatusCode, truncate(string(body), 200))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}

		content := contentFromChoices(body)
		if content == "" {
			lastErr = ErrEmptyReply
			return backoff.Permanent(lastErr)
		}
		reply = content
		lastErr = nil
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return "", fmt.Errorf("llm chat failed: %w", lastErr)
	}
	return reply, nil
}

// contentFromChoices reads choices[0].message.content.
func contentFromChoices(body []byte) string {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MockClient answers deterministically for offline demos.
type MockClient struct{}

func (MockClient) Chat(_ context.Context, message string, contextLines []string) (string, error) {
	return fmt.Sprintf("MOCK REPLY (%d facts): %s", len(contextLines), message), nil
}
