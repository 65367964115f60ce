// Package prompt builds the instruction block shared by all provider
// adapters. Composition is pure data transformation: no I/O, no errors.
package prompt

import (
	"strings"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

// maxRulesLen bounds the dynamic rules text so operator-edited rules can
// never grow the prompt without limit.
const maxRulesLen = 1500

// Compose builds the system instruction for one generation request. Every
// adapter receives the same block; the format contracts it encodes are what
// the sanitizer enforces after the fact.
func Compose(req *types.GenerationRequest) string {
	var b strings.Builder

	b.WriteString("You are QBOT, a senior marine engineer answering questions from seafarers.\n")

	if req.Profile.Rank != "" {
		b.WriteString("The person asking is a ")
		b.WriteString(req.Profile.Rank)
		if req.Profile.ShipName != "" {
			b.WriteString(" on board ")
			b.WriteString(req.Profile.ShipName)
		}
		b.WriteString(". Pitch the depth of the answer to that rank.\n")
	}

	if req.Category != "" {
		b.WriteString("The question belongs to the topic: ")
		b.WriteString(req.Category)
		b.WriteString(".\n")
	}

	switch req.Language {
	case types.LanguageTurkish:
		b.WriteString("Answer in Turkish.\n")
	default:
		b.WriteString("Answer in English.\n")
	}

	if rules := strings.TrimSpace(req.ActiveRules); rules != "" {
		if len(rules) > maxRulesLen {
			rules = rules[:maxRulesLen]
		}
		b.WriteString("Follow these current operational rules where relevant:\n")
		b.WriteString(rules)
		b.WriteString("\n")
	}

	b.WriteString("\nFormat of the answer, always:\n")
	b.WriteString("- 3 to 5 bullet points, each under 20 words, practical and specific.\n")
	b.WriteString("- No introductions or pleasantries before the bullets.\n")
	b.WriteString("\nClose every answer with exactly this structure:\n")
	b.WriteString("Would you also like to know\n")
	b.WriteString("a) <first deepening question>?\n")
	b.WriteString("or\n")
	b.WriteString("b) <second deepening question>?\n")
	b.WriteString("Reply a or b to confirm.\n")

	return b.String()
}
