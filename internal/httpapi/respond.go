package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Pipeline errors carry
// their classification code into the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	var te *herrors.TurnError
	switch {
	case herrors.IsNotFound(err):
		status = http.StatusNotFound
	case herrors.IsForbidden(err):
		status = http.StatusForbidden
	case herrors.IsValidation(err):
		status = http.StatusBadRequest
	case herrors.IsConflict(err), herrors.IsInvalidState(err):
		status = http.StatusConflict
	case herrors.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	case errors.As(err, &te):
		code = string(te.Code)
		switch te.Code {
		case herrors.ErrTranscriptionFailed:
			status = http.StatusUnprocessableEntity
		case herrors.ErrSynthesisFailed, herrors.ErrServiceUnavailable:
			status = http.StatusBadGateway
		case herrors.ErrTimeout:
			status = http.StatusGatewayTimeout
		case herrors.ErrRateLimit:
			status = http.StatusTooManyRequests
		}
	}

	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// sanitizeHeader makes arbitrary text safe for an HTTP header: NFKD
// decomposition, then only printable ASCII survives. Newlines and control
// characters are dropped outright.
func sanitizeHeader(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < 128 && unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
