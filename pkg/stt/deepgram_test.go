package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.DeepgramConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, logging.NewNopLogger())
}

const listenBody = `{"results":{"channels":[{"alternatives":[{"transcript":"hello coach"}]}]}}`

func TestTranscribeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, config.DefaultSTTModel, q.Get("model"))
		assert.Equal(t, config.DefaultSTTLanguage, q.Get("language"))
		assert.Equal(t, "true", q.Get("smart_format"))
		assert.Equal(t, "true", q.Get("punctuate"))

		_, _ = w.Write([]byte(listenBody))
	})

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Equal(t, "hello coach", text)
}

func TestTranscribeEmptyAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("empty audio must not reach the network")
	})

	_, err := client.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, herrors.ErrValidation)
}

func TestTranscribeNonSuccessStatusDegradesToEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeMalformedBodyDegradesToEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeNoAlternativesDegradesToEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	})

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeTransportErrorDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(config.DeepgramConfig{APIKey: "k", BaseURL: srv.URL}, logging.NewNopLogger())

	text, err := client.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Empty(t, text)
}
