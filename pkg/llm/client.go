// Package llm provides a client for OpenAI-compatible chat completion
// endpoints, plus the post-meeting summarizer built on top of it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// HTTPStatusError reports a non-success response from the completion
// endpoint, preserving the status code so callers can classify it.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params tunes one completion call. Zero values fall back to the client's
// configured defaults.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	defaults   Params
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests point it at a fake server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a completion client from the LLM settings.
func NewClient(cfg config.LLMConfig, logger logging.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		defaults: Params{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		},
		httpClient: &http.Client{Timeout: config.CollaboratorTimeout},
		logger:     logger.With(logging.F("component", "llm_client")),
	}
	if c.model == "" {
		c.model = config.DefaultLLMModel
	}
	if c.defaults.MaxTokens <= 0 {
		c.defaults.MaxTokens = config.DefaultLLMMaxTokens
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends the messages to the completion endpoint and returns the
// first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages to complete: %w", herrors.ErrValidation)
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("completion endpoint not configured: %w", herrors.ErrUnavailable)
	}

	if params.Temperature == 0 {
		params.Temperature = c.defaults.Temperature
	}
	if params.TopP == 0 {
		params.TopP = c.defaults.TopP
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = c.defaults.MaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, config.CollaboratorTimeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	content := strings.TrimSpace(out.Choices[0].Message.Content)
	c.logger.Debug("Completion received",
		logging.F("model", c.model),
		logging.F("chars", len(content)),
		logging.F("duration", time.Since(start)))
	return content, nil
}
