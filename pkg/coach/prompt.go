package coach

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
)

// Prompt assembly bounds. The knowledge base and conversation window are
// capped so the prompt stays inside the model's context comfortably.
const (
	kbCharLimit    = 1500
	historyWindow  = 5
	responseGuides = `IMPORTANT COACHING GUIDELINES:
- Be supportive, encouraging, and constructive
- Ask thoughtful follow-up questions to deepen understanding
- Provide specific, actionable advice
- Use examples when helpful
- Keep responses conversational and under 200 words
- Stay in character as the specified coach type
- Be empathetic and understanding`
)

// buildPrompt renders the persona framing, optional knowledge base, the
// tail of the conversation, and the current message into one prompt string.
func buildPrompt(profile *storage.CoachProfile, history []*storage.ChatTurn, message string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI coach named %s with expertise in %s.\n\n",
		profile.CoachRole, profile.DomainExpertise)
	fmt.Fprintf(&b, "Your personality and coaching style: %s\n\n", profile.CoachDescription)
	b.WriteString(responseGuides)
	b.WriteString("\n\n")

	if kb := strings.TrimSpace(profile.KBContent); kb != "" {
		kb = truncateAtRune(kb, kbCharLimit)
		b.WriteString("ADDITIONAL KNOWLEDGE BASE:\n")
		b.WriteString(kb)
		b.WriteString("\n\nUse this knowledge to enhance your coaching when relevant.\n\n")
	}

	if len(history) > 0 {
		tail := history
		if len(tail) > historyWindow {
			tail = tail[len(tail)-historyWindow:]
		}
		b.WriteString("RECENT CONVERSATION CONTEXT:\n")
		for _, turn := range tail {
			role := "Coach"
			if turn.IsUser {
				role = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Message)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "USER'S CURRENT MESSAGE: %s\n\n", message)
	b.WriteString("Please respond as the AI coach, providing helpful guidance while staying true to your role and personality. Be engaging and supportive.")

	return b.String()
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
