// Package stt provides the speech-to-text adapter for the turn pipeline,
// backed by the Deepgram prerecorded listen API.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

const defaultBaseURL = "https://api.deepgram.com"

// listenResponse is the minimal response shape of the listen endpoint.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Client transcribes single-channel WAV audio via Deepgram.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
	logger     logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (tests point it at a fake server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a transcription client from the Deepgram settings.
func NewClient(cfg config.DeepgramConfig, logger logging.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		language:   cfg.Language,
		httpClient: &http.Client{Timeout: config.CollaboratorTimeout},
		logger:     logger.With(logging.F("component", "stt_client")),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = config.DefaultSTTModel
	}
	if c.language == "" {
		c.language = config.DefaultSTTLanguage
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe converts raw audio bytes to text. Zero-byte input is a
// validation error and never reaches the network. Provider failures such as
// a non-success status, a malformed body, or a transport error degrade to an
// empty transcript rather than an error; the orchestrator decides what an
// empty transcript means.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio: %w", herrors.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, config.CollaboratorTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("model", c.model)
	q.Set("language", c.language)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	endpoint := c.baseURL + "/v1/listen?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Transcription request failed",
			logging.Err(err),
			logging.F("duration", time.Since(start)))
		return "", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("Transcription returned non-success status",
			logging.F("status", resp.StatusCode),
			logging.F("body", string(body)))
		return "", nil
	}

	var payload listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("Failed to decode transcription response", logging.Err(err))
		return "", nil
	}

	if len(payload.Results.Channels) == 0 || len(payload.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	transcript := payload.Results.Channels[0].Alternatives[0].Transcript
	c.logger.Debug("Audio transcribed",
		logging.F("bytes", len(audio)),
		logging.F("chars", len(transcript)),
		logging.F("duration", time.Since(start)))
	return transcript, nil
}
