package prompt

import (
	"strings"
	"testing"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

func TestCompose_IncludesRankAndCategory(t *testing.T) {
	req := &types.GenerationRequest{
		Message:  "purifier alarm",
		Category: "Purifiers",
		Profile:  types.ProfileRef{Rank: "4th Engineer", ShipName: "MV Orion"},
	}

	got := Compose(req)
	for _, want := range []string{"4th Engineer", "MV Orion", "Purifiers", "Reply a or b to confirm."} {
		if !strings.Contains(got, want) {
			t.Errorf("composed prompt missing %q", want)
		}
	}
}

func TestCompose_LanguageSelection(t *testing.T) {
	en := Compose(&types.GenerationRequest{Message: "x"})
	if !strings.Contains(en, "Answer in English.") {
		t.Error("default language should be English")
	}

	tr := Compose(&types.GenerationRequest{Message: "x", Language: types.LanguageTurkish})
	if !strings.Contains(tr, "Answer in Turkish.") {
		t.Error("expected Turkish instruction")
	}
}

func TestCompose_TruncatesRules(t *testing.T) {
	req := &types.GenerationRequest{
		Message:     "x",
		ActiveRules: strings.Repeat("r", maxRulesLen+500),
	}

	got := Compose(req)
	if strings.Contains(got, strings.Repeat("r", maxRulesLen+1)) {
		t.Error("rules text exceeded the bounded prefix")
	}
	if !strings.Contains(got, strings.Repeat("r", maxRulesLen)) {
		t.Error("rules prefix should be kept up to the bound")
	}
}

func TestCompose_OmitsEmptySections(t *testing.T) {
	got := Compose(&types.GenerationRequest{Message: "x"})
	if strings.Contains(got, "operational rules") {
		t.Error("rules section should be absent without active rules")
	}
	if strings.Contains(got, "on board") {
		t.Error("ship section should be absent without a profile")
	}
}
