// Package tts provides the text-to-speech adapter for coach responses,
// backed by the Deepgram speak API.
package tts

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
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

const defaultBaseURL = "https://api.deepgram.com"

// Output encoding for synthesized audio. Linear PCM at 24kHz keeps the
// browser playback path simple.
const (
	encoding   = "linear16"
	sampleRate = 24000
)

// Client synthesizes speech for a voice category, trying the category's
// primary model first and falling back to its alternate.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests point it at a fake server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a synthesis client from the Deepgram settings.
func NewClient(cfg config.DeepgramConfig, logger logging.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.CollaboratorTimeout},
		logger:     logger.With(logging.F("component", "tts_client")),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize renders text as audio using the voice category's model chain.
// The primary model is tried first; on failure the alternate model of the
// same category is tried once. Only when both fail does the call error.
func (c *Client) Synthesize(ctx context.Context, text string, category voice.Category) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty synthesis text: %w", herrors.ErrValidation)
	}

	var lastErr error
	for _, model := range voice.Models(category) {
		audio, err := c.speak(ctx, text, model)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		c.logger.Warn("Voice model failed, trying next",
			logging.Err(err),
			logging.F("model", model),
			logging.F("category", string(category)))
	}
	return nil, fmt.Errorf("all voice models failed for %s: %w", category, lastErr)
}

func (c *Client) speak(ctx context.Context, text, model string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, config.CollaboratorTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"text":        text,
		"model":       model,
		"encoding":    encoding,
		"sample_rate": sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/speak?model=%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesis returned status %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio")
	}

	c.logger.Debug("Speech synthesized",
		logging.F("model", model),
		logging.F("chars", len(text)),
		logging.F("bytes", len(audio)),
		logging.F("duration", time.Since(start)))
	return audio, nil
}
