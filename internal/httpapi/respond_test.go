package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
)

func TestSanitizeHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain ascii", "hello coach", "hello coach"},
		{"accents decomposed", "café résumé", "cafe resume"},
		{"newlines stripped", "line one\r\nline two", "line oneline two"},
		{"non-latin dropped", "hello 世界", "hello"},
		{"curly quotes dropped", "it’s fine", "its fine"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeHeader(tt.input))
		})
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("meeting: %w", herrors.ErrNotFound), http.StatusNotFound},
		{"forbidden", herrors.ErrForbidden, http.StatusForbidden},
		{"validation", herrors.ErrValidation, http.StatusBadRequest},
		{"conflict", herrors.ErrConflict, http.StatusConflict},
		{"invalid state", herrors.ErrInvalidState, http.StatusConflict},
		{"unavailable", herrors.ErrUnavailable, http.StatusServiceUnavailable},
		{"transcription failed", herrors.NewTurnError(herrors.ErrTranscriptionFailed, herrors.StageTranscribe, "no speech detected", nil), http.StatusUnprocessableEntity},
		{"synthesis failed", herrors.NewTurnError(herrors.ErrSynthesisFailed, herrors.StageSynthesize, "both voices failed", nil), http.StatusBadGateway},
		{"storage failed", herrors.NewTurnError(herrors.ErrStorageFailed, herrors.StagePersistUser, "insert failed", nil), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHeaderResolver(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-ID", "42")

	id, err := HeaderResolver{}.Resolve(r)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	r.Header.Set("X-User-ID", "not-a-number")
	_, err = HeaderResolver{}.Resolve(r)
	assert.ErrorIs(t, err, herrors.ErrForbidden)

	r.Header.Del("X-User-ID")
	_, err = HeaderResolver{}.Resolve(r)
	assert.ErrorIs(t, err, herrors.ErrForbidden)
}
