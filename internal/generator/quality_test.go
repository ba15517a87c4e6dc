package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pathwise/backend/internal/models"
)

func generatedItem() GeneratedItem {
	return GeneratedItem{
		Skills:         []string{"fractions"},
		Difficulty:     json.Number("0.5"),
		Discrimination: json.Number("1.2"),
		Guessing:       json.Number("0.25"),
		Stem:           "What is 1/2 + 1/4?",
		Choices: []GeneratedChoice{
			{ChoiceID: "A", Text: "3/4"},
			{ChoiceID: "B", Text: "2/6"},
			{ChoiceID: "C", Text: "1/6"},
			{ChoiceID: "D", Text: "2/4"},
		},
		CorrectChoiceID: "A",
		Explanation:     "Common denominator of 4 gives 2/4 + 1/4 = 3/4.",
	}
}

func TestScreenAcceptsValidItem(t *testing.T) {
	res := Screen(generatedItem(), models.SubjectMathematics)
	if res.Status != models.ItemActive {
		t.Fatalf("status = %v (reason %q), want active", res.Status, res.Reason)
	}
	if res.Item.Difficulty != 0.5 || res.Item.Discrimination != 1.2 || res.Item.Guessing != 0.25 {
		t.Errorf("parameters = (%v, %v, %v), want (0.5, 1.2, 0.25)",
			res.Item.Difficulty, res.Item.Discrimination, res.Item.Guessing)
	}
}

func TestScreenClampsNumericDrift(t *testing.T) {
	g := generatedItem()
	g.Difficulty = json.Number("3.2")
	g.Discrimination = json.Number("0.3")

	res := Screen(g, models.SubjectMathematics)
	if res.Status != models.ItemActive {
		t.Fatalf("drifted-but-plausible item should stay active, got %v (%q)", res.Status, res.Reason)
	}
	if res.Item.Difficulty != models.DifficultyMax {
		t.Errorf("difficulty = %v, want clamped to %v", res.Item.Difficulty, models.DifficultyMax)
	}
	if res.Item.Discrimination != models.DiscriminationMin {
		t.Errorf("discrimination = %v, want clamped to %v", res.Item.Discrimination, models.DiscriminationMin)
	}
}

func TestScreenQuarantinesGarbageParameters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GeneratedItem)
		reason string
	}{
		{
			name:   "non-numeric difficulty",
			mutate: func(g *GeneratedItem) { g.Difficulty = json.Number("very hard") },
			reason: "not a usable number",
		},
		{
			name:   "difficulty off the scale",
			mutate: func(g *GeneratedItem) { g.Difficulty = json.Number("42") },
			reason: "far outside the calibrated scale",
		},
		{
			name:   "negative discrimination",
			mutate: func(g *GeneratedItem) { g.Discrimination = json.Number("-1.0") },
			reason: "negative discrimination",
		},
		{
			name:   "guessing at or above 1",
			mutate: func(g *GeneratedItem) { g.Guessing = json.Number("1.0") },
			reason: "outside [0, 1)",
		},
		{
			name:   "skill outside catalog",
			mutate: func(g *GeneratedItem) { g.Skills = []string{"necromancy"} },
			reason: "not in the mathematics catalog",
		},
	}

	for _, tt := range tests {
		g := generatedItem()
		tt.mutate(&g)
		res := Screen(g, models.SubjectMathematics)
		if res.Status != models.ItemQuarantined {
			t.Errorf("%s: status = %v, want quarantined", tt.name, res.Status)
			continue
		}
		if !strings.Contains(res.Reason, tt.reason) {
			t.Errorf("%s: reason %q does not mention %q", tt.name, res.Reason, tt.reason)
		}
	}
}

func TestQuarantinedItemsKeepStorableParameters(t *testing.T) {
	// Quarantined items are persisted with their reason for review, so
	// their parameters must land inside the bank's valid domains even
	// when the generated values were garbage.
	mutations := []func(*GeneratedItem){
		func(g *GeneratedItem) { g.Difficulty = json.Number("not a number") },
		func(g *GeneratedItem) { g.Discrimination = json.Number("NaN") },
		func(g *GeneratedItem) { g.Difficulty = json.Number("42") },
		func(g *GeneratedItem) { g.Discrimination = json.Number("-1.0") },
		func(g *GeneratedItem) { g.Guessing = json.Number("1.5") },
		func(g *GeneratedItem) { g.Skills = []string{"necromancy"} },
	}

	for i, mutate := range mutations {
		g := generatedItem()
		mutate(&g)
		res := Screen(g, models.SubjectMathematics)
		if res.Status != models.ItemQuarantined {
			t.Errorf("case %d: status = %v, want quarantined", i, res.Status)
			continue
		}
		item := res.Item
		if item.Difficulty < models.DifficultyMin || item.Difficulty > models.DifficultyMax {
			t.Errorf("case %d: difficulty %v outside [%v, %v]", i, item.Difficulty, models.DifficultyMin, models.DifficultyMax)
		}
		if item.Discrimination < models.DiscriminationMin || item.Discrimination > models.DiscriminationMax {
			t.Errorf("case %d: discrimination %v outside [%v, %v]", i, item.Discrimination, models.DiscriminationMin, models.DiscriminationMax)
		}
		if item.Guessing < 0 || item.Guessing >= 1 {
			t.Errorf("case %d: guessing %v outside [0, 1)", i, item.Guessing)
		}
	}
}

func TestBuildItemUserPrompt(t *testing.T) {
	prompt := BuildItemUserPrompt(models.SubjectPhysics, -0.5, 4)
	if !strings.Contains(prompt, "physics") {
		t.Error("prompt missing subject")
	}
	if !strings.Contains(prompt, "-0.5") {
		t.Error("prompt missing target difficulty")
	}
	if !strings.Contains(prompt, "kinematics") {
		t.Error("prompt missing skill catalog")
	}
}
