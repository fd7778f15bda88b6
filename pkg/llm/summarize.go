package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// Summary holds the derived fields stored on a completed meeting.
type Summary struct {
	Summary     string
	KeyPoints   string
	ActionItems string
}

// Summarization tuning. The summary call runs cooler and longer than turn
// generation.
const (
	summaryTemperature = 0.5
	summaryMaxTokens   = 800

	// minTranscriptChars is the floor below which no model call is worth
	// making.
	minTranscriptChars = 10

	// transcriptLimit caps how much transcript goes into the prompt.
	transcriptLimit = 2000
)

// shortSummary is returned for transcripts too short to analyze.
var shortSummary = Summary{
	Summary:     "Meeting was too short to generate a meaningful summary",
	KeyPoints:   "No significant discussion points identified",
	ActionItems: "No action items identified",
}

// defaultSummary is returned when the model output cannot be parsed at all.
var defaultSummary = Summary{
	Summary:     "A productive coaching session was completed with valuable insights shared.",
	KeyPoints:   "• Important topics were discussed\n• Progress was made on key objectives\n• Next steps were identified",
	ActionItems: "• Continue working on discussed strategies\n• Apply insights from the session\n• Schedule follow-up as needed",
}

// Summarizer produces post-meeting summaries from a transcript.
type Summarizer struct {
	client *Client
	logger logging.Logger
}

// NewSummarizer creates a Summarizer. A nil client always yields the default
// summary for non-trivial transcripts.
func NewSummarizer(client *Client, logger logging.Logger) *Summarizer {
	return &Summarizer{
		client: client,
		logger: logger.With(logging.F("component", "summarizer")),
	}
}

// Summarize analyzes a meeting transcript into summary, key points, and
// action items. It never returns an error: transcripts under the minimum
// length get the canned short-meeting fields, and any model failure or
// unparseable output falls back to the default summary so meeting completion
// is never blocked.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) Summary {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return shortSummary
	}
	if s.client == nil {
		return defaultSummary
	}

	transcript = truncateAtRune(transcript, transcriptLimit)

	prompt := fmt.Sprintf(`Analyze this coaching session transcript and provide:

1. SUMMARY: A concise 2-3 sentence summary of the main discussion
2. KEY POINTS: The most important topics or insights discussed (as bullet points)
3. ACTION ITEMS: Specific next steps or recommendations for the coachee (as bullet points)

Transcript:
%s

Format your response exactly as:
SUMMARY:
[Your summary here]

KEY POINTS:
• [Point 1]
• [Point 2]
• [Point 3]

ACTION ITEMS:
• [Action 1]
• [Action 2]
• [Action 3]`, transcript)

	out, err := s.client.Complete(ctx, []Message{{Role: "user", Content: prompt}}, Params{
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		s.logger.Error("Summary generation failed, using default", logging.Err(err))
		return defaultSummary
	}
	return parseSummary(out)
}

// truncateAtRune cuts s to at most limit bytes without splitting a rune.
func truncateAtRune(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// parseSummary splits the model output on its section markers. Missing
// sections get per-section placeholder text; a response with no markers at
// all yields the placeholders for every field.
func parseSummary(text string) Summary {
	upper := strings.ToUpper(text)

	var summary, keyPoints, actionItems string

	if idx := strings.Index(upper, "SUMMARY:"); idx >= 0 {
		start := idx + len("SUMMARY:")
		end := strings.Index(upper, "KEY POINTS:")
		if end > start {
			summary = strings.TrimSpace(text[start:end])
		} else {
			summary = strings.TrimSpace(text[start:])
		}
	}
	if idx := strings.Index(upper, "KEY POINTS:"); idx >= 0 {
		start := idx + len("KEY POINTS:")
		end := strings.Index(upper, "ACTION ITEMS:")
		if end > start {
			keyPoints = strings.TrimSpace(text[start:end])
		} else {
			keyPoints = strings.TrimSpace(text[start:])
		}
	}
	if idx := strings.Index(upper, "ACTION ITEMS:"); idx >= 0 {
		actionItems = strings.TrimSpace(text[idx+len("ACTION ITEMS:"):])
	}

	if summary == "" {
		summary = "Meeting summary generated successfully"
	}
	if keyPoints == "" {
		keyPoints = "Key discussion points were covered"
	}
	if actionItems == "" {
		actionItems = "Follow-up actions were discussed"
	}
	return Summary{Summary: summary, KeyPoints: keyPoints, ActionItems: actionItems}
}
