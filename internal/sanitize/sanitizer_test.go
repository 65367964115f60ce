package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize_WorkedExample(t *testing.T) {
	input := "• Check X\n• Check Y\nWould u also like to know\nq1) what is A\nor\nq2) what is B"
	want := "• Check X\n• Check Y\nWould u also like to know\na) What is A?\nor\nb) What is B?\nReply a or b to confirm."

	got := Sanitize(input)
	if got != want {
		t.Errorf("Sanitize mismatch\ngot:  %q\nwant: %q", got, want)
	}
}

func TestSanitize_MarkerVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"numeric", "Would you like to know\n1) what is cavitation\nor\n2) what is erosion"},
		{"parenthesized", "Would you like to know\n(1) what is cavitation\nor\n(2) what is erosion"},
		{"q_prefixed", "Would you like to know\nq1) what is cavitation\nor\nq2) what is erosion"},
		{"bold_numeric", "Would you like to know\n**1)** what is cavitation\nor\n**2)** what is erosion"},
		{"lettered_already", "Would you like to know\na) what is cavitation\nor\nb) what is erosion"},
		{"uppercase_letters", "Would you like to know\nA) what is cavitation\nor\nB) what is erosion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)

			if !strings.Contains(got, "a) What is cavitation?") {
				t.Errorf("missing canonical option a in %q", got)
			}
			if !strings.Contains(got, "b) What is erosion?") {
				t.Errorf("missing canonical option b in %q", got)
			}
			if strings.Count(got, "a) ") != 1 || strings.Count(got, "b) ") != 1 {
				t.Errorf("expected exactly one a) and one b) marker in %q", got)
			}
			if !strings.Contains(got, "\nor\n") {
				t.Errorf("or separator not standalone in %q", got)
			}
			if !strings.HasSuffix(got, ConfirmationLine) {
				t.Errorf("missing canonical confirmation line in %q", got)
			}
		})
	}
}

func TestSanitize_PunctuationNormalized(t *testing.T) {
	input := "Would you like to know\n1) what is a scavenge fire??\nor\n2) what causes crankcase explosions."
	got := Sanitize(input)

	if !strings.Contains(got, "a) What is a scavenge fire?\n") {
		t.Errorf("duplicate question marks not collapsed: %q", got)
	}
	if !strings.Contains(got, "b) What causes crankcase explosions?") {
		t.Errorf("terminal period not replaced by question mark: %q", got)
	}
}

func TestSanitize_ConfirmationVariantsReplaced(t *testing.T) {
	variants := []string{
		"Reply 1 or 2 to continue.",
		"Please choose 1 or 2.",
		"Answer with a or b.",
		"Type 1 or 2 to pick one.",
	}

	for _, v := range variants {
		input := "Would you like to know\n1) what is A\nor\n2) what is B\n" + v
		got := Sanitize(input)
		if strings.Contains(got, v) {
			t.Errorf("variant confirmation %q survived sanitization", v)
		}
		if !strings.HasSuffix(got, ConfirmationLine) {
			t.Errorf("canonical confirmation missing for variant %q", v)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"• Check X\nWould u also like to know\nq1) what is A\nor\nq2) what is B",
		"Would you also like to know\n**1)** how governors hunt\nor\n**2)** how to adjust droop\nreply 1/2",
		"Answer without any block at all.",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("not idempotent\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestSanitize_NoBlockPassesThrough(t *testing.T) {
	inputs := []string{
		"",
		"• Check the filter.\n• Check the pump.",
		"An answer mentioning options 1) and 2) but no follow-up greeting.",
	}

	for _, input := range inputs {
		if got := Sanitize(input); got != input {
			t.Errorf("expected pass-through for %q, got %q", input, got)
		}
	}
}

func TestSanitize_PrefixNeverTouched(t *testing.T) {
	prefix := "• **Bold** text with 1) markers and misc?? punctuation.\n"
	input := prefix + "Would you like to know\n1) what is A\nor\n2) what is B"

	got := Sanitize(input)
	if !strings.HasPrefix(got, prefix) {
		t.Errorf("technical answer prefix was modified: %q", got)
	}
}

func TestSanitize_MalformedBlockPassesThrough(t *testing.T) {
	// Only one option found: rewriting would mean inventing the second.
	input := "Would you like to know\n1) what is A"
	if got := Sanitize(input); got != input {
		t.Errorf("expected pass-through for malformed block, got %q", got)
	}
}

func TestSplitBlock(t *testing.T) {
	prefix, block, found := SplitBlock("answer\nWould you like to know\na) X?\nor\nb) Y?")
	if !found {
		t.Fatal("expected block found")
	}
	if prefix != "answer\n" {
		t.Errorf("unexpected prefix %q", prefix)
	}
	if !strings.HasPrefix(block, "Would you like to know") {
		t.Errorf("unexpected block %q", block)
	}

	if _, _, found := SplitBlock("no block here"); found {
		t.Error("expected no block")
	}
}

func TestOptionRules_Individually(t *testing.T) {
	if got := stripEmphasis("**what is A**"); got != "what is A" {
		t.Errorf("stripEmphasis = %q", got)
	}
	if got := capitalizeFirst("Ölçü nedir"); got != "Ölçü nedir" {
		t.Errorf("capitalizeFirst on already-capitalized = %q", got)
	}
	if got := capitalizeFirst("what"); got != "What" {
		t.Errorf("capitalizeFirst = %q", got)
	}
	if got := singleQuestionMark("what is A??"); got != "what is A?" {
		t.Errorf("singleQuestionMark = %q", got)
	}
	if got := singleQuestionMark("what is A."); got != "what is A?" {
		t.Errorf("singleQuestionMark on period = %q", got)
	}
}
