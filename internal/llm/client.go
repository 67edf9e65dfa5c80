// Package llm provides the DeepSeek-compatible chat-completion client
// and the narrative generators built on it: adventure events, NPC
// dialogue, sect events, rumors, martial-arts lore, and encounters.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Sentinel errors for the generation pipeline. Callers route all of
// them to the fallback path; they never reach the player.
var (
	// ErrNotConfigured means no API key is set. Soft-disable, not a crash.
	ErrNotConfigured = errors.New("llm: client not configured")
	// ErrMalformedResponse means the model output held no parseable JSON.
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// UpstreamError is a non-2xx answer from the completion endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm: upstream error %d: %s", e.StatusCode, e.Body)
}

const (
	defaultBaseURL = "https://api.deepseek.com/v1/chat/completions"
	defaultModel   = "deepseek-chat"
)

// Client wraps a chat-completion endpoint. A nil Client is valid and
// permanently disabled, so callers can construct unconditionally.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client

	// Minimum spacing between calls, to stay under upstream throttling.
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the completion endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMinDelay overrides the minimum inter-call delay.
func WithMinDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.minDelay = d
		}
	}
}

// NewClient creates a chat-completion client. Returns nil if apiKey is
// empty (LLM generation disabled, templates only).
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		return nil
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		minDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client can issue calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Message is a chat message on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	TopP        float64   `json:"top_p"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a system+user prompt pair and returns the raw
// completion text. Blocks until the minimum inter-call delay since the
// previous request has elapsed.
func (c *Client) Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	if err := c.waitTurn(ctx); err != nil {
		return "", err
	}

	messages := make([]Message, 0, 2)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: userPrompt})

	req := request{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   maxTokens,
		TopP:        0.9,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}

	slog.Debug("chat completion",
		"prompt_tokens", apiResp.Usage.PromptTokens,
		"completion_tokens", apiResp.Usage.CompletionTokens,
	)

	return apiResp.Choices[0].Message.Content, nil
}

// waitTurn sleeps out the remainder of the inter-call delay, honoring
// context cancellation. Claims the next call slot before sleeping so
// concurrent callers space out instead of stampeding.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	next := c.lastCall.Add(c.minDelay)
	if next.Before(now) {
		next = now
	}
	c.lastCall = next
	c.mu.Unlock()

	wait := time.Until(next)
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
