package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.LLMConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.7,
		TopP:        0.8,
		MaxTokens:   500,
	}, logging.NewNopLogger())
	return client, srv
}

func TestCompleteSuccess(t *testing.T) {
	var got chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  hello there  "}},
			},
		})
	})

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})

	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.InDelta(t, 0.8, got.TopP, 1e-9)
	assert.Equal(t, 500, got.MaxTokens)
}

func TestCompleteParamOverrides(t *testing.T) {
	var got chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	})

	_, err := client.Complete(context.Background(),
		[]Message{{Role: "user", Content: "hi"}},
		Params{Temperature: 0.5, MaxTokens: 800})

	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Temperature, 1e-9)
	assert.Equal(t, 800, got.MaxTokens)
}

func TestCompleteNonSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestCompleteNoChoices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	assert.Error(t, err)
}

func TestCompleteNoMessages(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.Complete(context.Background(), nil, Params{})
	assert.ErrorIs(t, err, herrors.ErrValidation)
}

func TestCompleteUnconfiguredEndpoint(t *testing.T) {
	client := NewClient(config.LLMConfig{}, logging.NewNopLogger())

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Params{})
	assert.ErrorIs(t, err, herrors.ErrUnavailable)
}
