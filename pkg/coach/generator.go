// Package coach turns a user message plus a coach persona into the AI side
// of a conversation turn. Generation failures never propagate: the generator
// always produces a non-empty response, falling back to a deterministic
// canned answer when the model is unavailable.
package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/llm"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
)

// Completer is the slice of the LLM client the generator needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error)
}

// Canned responses for degraded paths.
const (
	unavailableResponse = "I apologize, but the AI service is currently unavailable. Please try again later."
	emptyInputResponse  = "I didn't catch that. Could you please repeat your question?"
	emptyOutputResponse = "I understand your question, but I'm having trouble formulating a response right now. Could you try rephrasing it?"
)

// fallbackResponses are used when the model call fails outright. Selection
// is keyed on the message length so a repeated identical failure reproduces
// the same answer. Each references the coach's role via %s.
var fallbackResponses = []string{
	"As your %s, I understand you're asking about something important. While I'm experiencing some technical difficulties right now, I want to help you work through this. Could you tell me more about what specifically you'd like guidance on?",
	"I appreciate you sharing that with me. As your %s, I'm here to support you, though I'm having some technical challenges at the moment. What's the main thing you're hoping to achieve or improve?",
	"Thank you for that question. While I'm having some connectivity issues right now, I don't want that to stop our progress. Can you help me understand what outcome you're looking for?",
	"I hear you, and as your %s, I want to make sure I give you the best guidance possible. I'm experiencing some technical difficulties, but let's work through this together. What's your biggest challenge right now?",
}

// Generator produces coach responses.
type Generator struct {
	completer Completer
	logger    logging.Logger
}

// NewGenerator creates a Generator. completer may be nil, in which case
// every call takes the degraded path.
func NewGenerator(completer Completer, logger logging.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger.With(logging.F("component", "response_generator")),
	}
}

// Respond generates the coach's reply to message given the persona and the
// prior turns (chronological, excluding the just-persisted user turn). The
// returned string is never empty; degraded reports whether the reply came
// from a canned path rather than the model.
func (g *Generator) Respond(ctx context.Context, profile *storage.CoachProfile, history []*storage.ChatTurn, message string) (reply string, degraded bool) {
	if strings.TrimSpace(message) == "" {
		return emptyInputResponse, true
	}
	if g.completer == nil {
		g.logger.Warn("Language model not configured, returning unavailable response")
		return unavailableResponse, true
	}

	prompt := buildPrompt(profile, history, message)

	out, err := g.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{})
	if err != nil {
		g.logger.Warn("Response generation failed, using fallback",
			logging.Err(err),
			logging.F("coach_role", profile.CoachRole))
		return Fallback(message, profile.CoachRole), true
	}

	out = strings.TrimSpace(out)
	if out == "" {
		g.logger.Warn("Model returned empty response", logging.F("coach_role", profile.CoachRole))
		return emptyOutputResponse, true
	}
	return out, false
}

// Fallback returns the deterministic degraded response for a message and
// coach role. Exported so tests can assert pipeline behavior against the
// exact expected text.
func Fallback(message, coachRole string) string {
	tmpl := fallbackResponses[len(message)%len(fallbackResponses)]
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, coachRole)
	}
	return tmpl
}
