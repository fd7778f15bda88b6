// Package voice owns the canonical gender/voice categories used to select a
// synthesis voice. Coach profiles arrive with free-text gender labels from
// clients (and legacy rows with arbitrary casing); everything funnels through
// Normalize so that stored values and voice selection always operate on one
// of exactly two canonical categories.
package voice

import "strings"

// Category is a canonical voice category.
type Category string

const (
	// Male is the primary/default category. Any unrecognized input maps here.
	Male Category = "MALE"
	// Female is the secondary category.
	Female Category = "FEMALE"
)

// femaleSynonyms lists the accepted spellings for the Female category.
// Matching is case-insensitive after trimming.
var femaleSynonyms = map[string]bool{
	"FEMALE": true,
	"F":      true,
	"WOMAN":  true,
}

// Normalize maps an arbitrary gender label to a canonical Category.
// It is total: empty, unrecognized, or garbage input yields Male.
func Normalize(raw string) Category {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if femaleSynonyms[s] {
		return Female
	}
	return Male
}

// IsCanonical reports whether raw is already exactly a canonical value.
func IsCanonical(raw string) bool {
	return raw == string(Male) || raw == string(Female)
}

// Deepgram Aura voice models per category. The alternate is tried once when
// synthesis with the primary fails.
var voiceModels = map[Category]struct{ primary, alternate string }{
	Male:   {primary: "aura-orion-en", alternate: "aura-arcas-en"},
	Female: {primary: "aura-luna-en", alternate: "aura-asteria-en"},
}

// PrimaryModel returns the preferred synthesis voice model for a category.
func PrimaryModel(c Category) string {
	return voiceModels[normalizeCategory(c)].primary
}

// AlternateModel returns the fallback synthesis voice model for a category.
func AlternateModel(c Category) string {
	return voiceModels[normalizeCategory(c)].alternate
}

// Models returns the ordered voice-model strategy list for a category:
// primary first, then alternate.
func Models(c Category) []string {
	m := voiceModels[normalizeCategory(c)]
	return []string{m.primary, m.alternate}
}

// normalizeCategory guards against a Category value constructed from an
// unvalidated string.
func normalizeCategory(c Category) Category {
	if c == Female {
		return Female
	}
	return Male
}
