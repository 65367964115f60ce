package tier

import (
	"strings"
	"unicode"

	"github.com/qaaqit/qbot-gateway/internal/sanitize"
)

// Limits is the free-tier word budget. Invariant: 0 < MinWords <= MaxWords.
type Limits struct {
	MinWords int
	MaxWords int
}

// minAnswerFraction floors the technical-answer budget when the follow-up
// block eats most of the total, so truncation never leaves a near-empty
// answer above the block.
const minAnswerFraction = 3

// Apply enforces the tier's content policy on sanitized text. Unrestricted
// content passes through unmodified. Rate-limited content within budget also
// passes through. Over budget, the follow-up block (if present) is preserved
// byte-identical and only the technical answer above it is cut; the cut ends
// at a word boundary with clean sentence punctuation, never mid-word.
func Apply(t Tier, content string, limits Limits) string {
	if t == Unrestricted {
		return content
	}

	maxWords := limits.MaxWords
	if limits.MinWords <= 0 || maxWords <= 0 || limits.MinWords > maxWords {
		maxWords = 150
	}

	if WordCount(content) <= maxWords {
		return content
	}

	prefix, block, found := sanitize.SplitBlock(content)
	if !found {
		return closeSentence(cutWords(content, maxWords))
	}

	budget := maxWords - WordCount(block)
	if floor := maxWords / minAnswerFraction; budget < floor {
		budget = floor
	}

	if WordCount(prefix) <= budget {
		return content
	}

	return closeSentence(cutWords(prefix, budget)) + "\n\n" + block
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// cutWords returns s cut after at most n words, preserving the original
// layout of what remains.
func cutWords(s string, n int) string {
	if n <= 0 {
		return ""
	}
	inWord := false
	words := 0
	for i, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			words++
			if words > n {
				return s[:i]
			}
		}
	}
	return s
}

// closeSentence trims dangling separators and guarantees the text ends in a
// sentence-terminating mark.
func closeSentence(s string) string {
	s = strings.TrimRight(s, " \t\n")
	s = strings.TrimRight(s, ",;:-–")
	if s == "" {
		return s
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
