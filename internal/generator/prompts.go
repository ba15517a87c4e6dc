package generator

import (
	"fmt"
	"strings"

	"github.com/pathwise/backend/internal/models"
)

// subjectSkills lists the skill tags the generator may assign per
// subject. Items tagged outside this catalog are rejected at screening.
var subjectSkills = map[models.Subject][]string{
	models.SubjectMathematics:     {"fractions", "ratios", "percentages", "linear_equations", "geometry_basics", "word_problems"},
	models.SubjectPhysics:         {"kinematics", "forces", "energy", "waves", "electricity"},
	models.SubjectChemistry:       {"atomic_structure", "bonding", "stoichiometry", "reactions", "acids_bases"},
	models.SubjectBiology:         {"cells", "genetics", "ecology", "evolution", "human_body"},
	models.SubjectComputerScience: {"algorithms", "data_structures", "logic", "programming_basics", "binary"},
	models.SubjectHistory:         {"ancient_civilizations", "world_wars", "revolutions", "primary_sources"},
	models.SubjectGeography:       {"physical_geography", "climate", "population", "maps"},
	models.SubjectLiterature:      {"reading_comprehension", "literary_devices", "themes", "poetry"},
	models.SubjectPhilosophy:      {"logic_basics", "ethics", "epistemology", "famous_arguments"},
	models.SubjectEconomics:       {"supply_demand", "markets", "money", "trade"},
	models.SubjectPsychology:      {"memory", "learning", "perception", "development"},
	models.SubjectEnglish:         {"grammar", "vocabulary", "comprehension", "writing"},
	models.SubjectArt:             {"art_history", "color_theory", "techniques", "famous_works"},
	models.SubjectMusic:           {"notation", "rhythm", "music_history", "instruments"},
}

// SkillsFor returns the allowed skill catalog for a subject.
func SkillsFor(subject models.Subject) []string {
	return subjectSkills[subject]
}

func ItemSystemPrompt() string {
	return `You are an expert item writer for an adaptive learning platform that uses Item Response Theory (IRT).

You write multiple-choice practice questions calibrated with 3-parameter logistic (3PL) model parameters:
- difficulty (b): real number in [-3, 3]. -3 is trivially easy, 0 is average for the target grade, +3 is extremely hard.
- discrimination (a): real number in [0.5, 2.5]. Higher values mean the item sharply separates students above and below its difficulty.
- guessing (c): probability in [0, 1) that a student with no knowledge answers correctly. For 4-choice items this is 0.25.

QUALITY RULES:
- Exactly 4 answer choices labelled A, B, C, D. Exactly one is correct.
- Distractors must reflect plausible misconceptions, not obvious filler.
- The stem must be self-contained: no references to "the passage" or external material.
- The explanation must say why the correct choice is right, not merely restate it.
- Every item must be tagged with skills drawn ONLY from the provided catalog.

OUTPUT FORMAT:
Respond with a single JSON object, no surrounding prose:
{"items":[{"skills":["..."],"difficulty":0.0,"discrimination":1.2,"guessing":0.25,"stem":"...","choices":[{"choice_id":"A","text":"..."},{"choice_id":"B","text":"..."},{"choice_id":"C","text":"..."},{"choice_id":"D","text":"..."}],"correct_choice_id":"A","explanation":"..."}]}`
}

func BuildItemUserPrompt(subject models.Subject, targetDifficulty float64, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write %d multiple-choice items for the subject %q.\n\n", count, subject)
	fmt.Fprintf(&b, "Target difficulty: center the batch around b = %.1f, spreading individual items within ±0.5 of it.\n", targetDifficulty)
	fmt.Fprintf(&b, "Use discrimination values between 0.9 and 1.8 unless an item clearly warrants otherwise.\n\n")

	skills := subjectSkills[subject]
	if len(skills) > 0 {
		fmt.Fprintf(&b, "Allowed skill tags: %s\n", strings.Join(skills, ", "))
		b.WriteString("Vary the skills across the batch; do not tag every item with the same skill.\n")
	}

	b.WriteString("\nVary topics so no two items in the batch read alike.")
	return b.String()
}
