// Package sanitize rewrites the trailing two-option follow-up block of raw
// model output into one canonical shape. Models are told to close every
// answer with the block, but compliance is loose: greetings, option markers,
// punctuation and the closing instruction all drift. The sanitizer finds the
// block by a tolerant match on its opening phrase and rewrites only that
// trailing section; the technical answer above it is never touched.
//
// Sanitization is pure, stateless and idempotent. If no opening phrase is
// found the text passes through byte-identical; a block that the model did
// not produce is never fabricated.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ConfirmationLine is the canonical closing instruction of the block.
const ConfirmationLine = "Reply a or b to confirm."

// openingPhrase tolerantly matches the block greeting: "would you like to
// know", "Would u also like to know", etc.
var openingPhrase = regexp.MustCompile(`(?i)would\s+(?:u|you)\s+(?:also\s+)?like\s+to\s+know`)

// optionMarker matches the option label variants the models produce:
// "1)", "q1)", "(2)", "a)", "A.", "**b)**", "- 1:".
var optionMarker = regexp.MustCompile(`^\s*(?:[-*_ ]*)\(?(?:[qQ]?([12])|([abAB]))[).:\-]\s*(.*)$`)

// orLine matches a standalone "or" separator, with stray punctuation or
// emphasis around it.
var orLine = regexp.MustCompile(`^[\s*_]*(?i:or)[\s*_,.:]*$`)

// confirmationVariant matches any phrasing of the closing instruction:
// "reply 1 or 2", "choose a/b", "answer with 1 or 2 to continue", etc.
var confirmationVariant = regexp.MustCompile(`(?i)^[\s*_]*(?:please\s+)?(?:reply|choose|answer|respond|type|send)\b.*\b(?:1|2|a|b)\b.*$`)

// rewriteRule is one named, independently testable rewrite applied to an
// option's text.
type rewriteRule struct {
	name  string
	apply func(string) string
}

// optionRules run in order over each option's text.
var optionRules = []rewriteRule{
	{"strip_emphasis", stripEmphasis},
	{"capitalize_first", capitalizeFirst},
	{"single_question_mark", singleQuestionMark},
}

// Sanitize rewrites the follow-up block of raw model text into canonical
// shape. Text without a recognizable block passes through unchanged.
func Sanitize(text string) string {
	prefix, block, found := SplitBlock(text)
	if !found {
		return text
	}

	lines := strings.Split(block, "\n")

	// The greeting line is kept verbatim; only what follows is rewritten.
	greeting := lines[0]
	var preamble []string
	var options []string
	current := -1

	for _, line := range lines[1:] {
		switch {
		case optionMarker.MatchString(line):
			if len(options) >= 2 {
				continue
			}
			m := optionMarker.FindStringSubmatch(line)
			options = append(options, m[3])
			current = len(options) - 1
		case orLine.MatchString(line):
			current = -1
		case confirmationVariant.MatchString(line):
			current = -1
		case strings.TrimSpace(line) == "":
			continue
		case current >= 0:
			// Continuation of a wrapped option.
			options[current] = strings.TrimSpace(options[current] + " " + strings.TrimSpace(line))
		default:
			preamble = append(preamble, line)
		}
	}

	// Two options are required to rewrite; anything else is not a block we
	// understand, and inventing one is worse than passing through.
	if len(options) != 2 {
		return text
	}

	for i, opt := range options {
		for _, rule := range optionRules {
			opt = rule.apply(opt)
		}
		options[i] = opt
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(greeting)
	b.WriteString("\n")
	for _, line := range preamble {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("a) ")
	b.WriteString(options[0])
	b.WriteString("\nor\nb) ")
	b.WriteString(options[1])
	b.WriteString("\n")
	b.WriteString(ConfirmationLine)

	return b.String()
}

// SplitBlock locates the follow-up block by its opening phrase. The split is
// at the start of the line holding the phrase: prefix keeps its trailing
// newline, block runs to the end of the text. found is false when no phrase
// is present.
func SplitBlock(text string) (prefix, block string, found bool) {
	loc := openingPhrase.FindStringIndex(text)
	if loc == nil {
		return text, "", false
	}
	start := strings.LastIndex(text[:loc[0]], "\n") + 1
	return text[:start], text[start:], true
}

// HasBlock reports whether the text contains a recognizable follow-up block.
func HasBlock(text string) bool {
	_, _, found := SplitBlock(text)
	return found
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "*", "")
	return strings.TrimSpace(s)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func singleQuestionMark(s string) string {
	s = strings.TrimRight(s, "?!. \t")
	return s + "?"
}
