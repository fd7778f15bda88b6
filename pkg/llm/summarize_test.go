package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

func TestSummarizeShortTranscript(t *testing.T) {
	s := NewSummarizer(nil, logging.NewNopLogger())

	for _, transcript := range []string{"", "   ", "hi there"} {
		got := s.Summarize(context.Background(), transcript)
		assert.Equal(t, shortSummary, got, "transcript %q", transcript)
	}
}

func TestSummarizeNilClient(t *testing.T) {
	s := NewSummarizer(nil, logging.NewNopLogger())

	got := s.Summarize(context.Background(), "a transcript that is long enough to analyze")
	assert.Equal(t, defaultSummary, got)
}

func TestSummarizeFailedCallFallsBackToDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(config.LLMConfig{BaseURL: srv.URL, MaxTokens: 100}, logging.NewNopLogger())
	s := NewSummarizer(client, logging.NewNopLogger())

	got := s.Summarize(context.Background(), "a transcript that is long enough to analyze")
	assert.Equal(t, defaultSummary, got)
}

func TestTruncateTranscriptKeepsRunesIntact(t *testing.T) {
	// A leading ASCII byte pushes the two-byte runes onto odd offsets so a
	// blind byte cut at transcriptLimit would split one.
	transcript := "a" + strings.Repeat("é", transcriptLimit)

	out := truncateAtRune(transcript, transcriptLimit)

	assert.Equal(t, transcriptLimit-1, len(out))
	assert.True(t, utf8.ValidString(out))
}

func TestParseSummarySections(t *testing.T) {
	out := parseSummary(`SUMMARY:
The session covered goal setting.

KEY POINTS:
• Set measurable goals
• Review weekly

ACTION ITEMS:
• Write down three goals`)

	assert.Equal(t, "The session covered goal setting.", out.Summary)
	assert.Contains(t, out.KeyPoints, "Set measurable goals")
	assert.Contains(t, out.KeyPoints, "Review weekly")
	assert.NotContains(t, out.KeyPoints, "Write down")
	assert.Equal(t, "• Write down three goals", out.ActionItems)
}

func TestParseSummaryMissingSections(t *testing.T) {
	out := parseSummary("SUMMARY:\nJust a summary, nothing else.")

	assert.Equal(t, "Just a summary, nothing else.", out.Summary)
	assert.Equal(t, "Key discussion points were covered", out.KeyPoints)
	assert.Equal(t, "Follow-up actions were discussed", out.ActionItems)
}

func TestParseSummaryNoMarkers(t *testing.T) {
	out := parseSummary("the model rambled without any structure")

	assert.Equal(t, "Meeting summary generated successfully", out.Summary)
	assert.Equal(t, "Key discussion points were covered", out.KeyPoints)
	assert.Equal(t, "Follow-up actions were discussed", out.ActionItems)
}

func TestParseSummaryCaseInsensitiveMarkers(t *testing.T) {
	out := parseSummary("Summary:\nlowercase markers work\n\nKey Points:\npoint one\n\nAction Items:\ndo the thing")

	assert.Equal(t, "lowercase markers work", out.Summary)
	assert.Equal(t, "point one", out.KeyPoints)
	assert.Equal(t, "do the thing", out.ActionItems)
}
