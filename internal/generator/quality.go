package generator

import (
	"fmt"
	"math"

	"github.com/pathwise/backend/internal/models"
)

// ScreenResult is the outcome of IRT parameter screening for one item.
type ScreenResult struct {
	Item   models.Item
	Status models.ItemStatus
	Reason string // set when quarantined
}

// Screen converts a generated item into a bank item, clamping small
// numeric drift into the valid parameter domains and quarantining items
// whose parameters are not usable numbers at all. Clamped items stay
// active; quarantined items never reach a session.
func Screen(g GeneratedItem, subject models.Subject) ScreenResult {
	item := models.Item{
		Subject:       subject,
		Skills:        g.Skills,
		Stem:          g.Stem,
		CorrectChoice: g.CorrectChoiceID,
		Explanation:   g.Explanation,
		Status:        models.ItemActive,
	}
	for _, c := range g.Choices {
		item.Choices = append(item.Choices, models.Choice{ChoiceID: c.ChoiceID, Text: c.Text})
	}

	difficulty, err := g.Difficulty.Float64()
	if err != nil || math.IsNaN(difficulty) || math.IsInf(difficulty, 0) {
		return quarantine(item, fmt.Sprintf("difficulty %q is not a usable number", g.Difficulty))
	}
	discrimination, err := g.Discrimination.Float64()
	if err != nil || math.IsNaN(discrimination) || math.IsInf(discrimination, 0) {
		return quarantine(item, fmt.Sprintf("discrimination %q is not a usable number", g.Discrimination))
	}
	guessing, err := g.Guessing.Float64()
	if err != nil || math.IsNaN(guessing) || math.IsInf(guessing, 0) {
		return quarantine(item, fmt.Sprintf("guessing %q is not a usable number", g.Guessing))
	}

	// Wildly wrong parameters suggest the model misunderstood the
	// scale; those items are not trustworthy even after clamping.
	if difficulty < -10 || difficulty > 10 {
		return quarantine(item, fmt.Sprintf("difficulty %.2f far outside the calibrated scale", difficulty))
	}
	if discrimination < 0 {
		return quarantine(item, fmt.Sprintf("negative discrimination %.2f", discrimination))
	}
	if guessing < 0 || guessing >= 1 {
		return quarantine(item, fmt.Sprintf("guessing %.2f outside [0, 1)", guessing))
	}

	item.Difficulty = clamp(difficulty, models.DifficultyMin, models.DifficultyMax)
	item.Discrimination = clamp(discrimination, models.DiscriminationMin, models.DiscriminationMax)
	item.Guessing = guessing

	if err := checkSkills(g.Skills, subject); err != nil {
		return quarantine(item, err.Error())
	}

	return ScreenResult{Item: item, Status: models.ItemActive}
}

// quarantine keeps the item storable for later review: the offending
// raw value lives in the reason, while the stored parameters are forced
// into the bank's valid domains so the insert cannot be rejected.
func quarantine(item models.Item, reason string) ScreenResult {
	item.Difficulty = clamp(item.Difficulty, models.DifficultyMin, models.DifficultyMax)
	item.Discrimination = clamp(item.Discrimination, models.DiscriminationMin, models.DiscriminationMax)
	if math.IsNaN(item.Guessing) || item.Guessing < 0 || item.Guessing >= 1 {
		item.Guessing = models.DefaultGuessing
	}
	item.Status = models.ItemQuarantined
	return ScreenResult{Item: item, Status: models.ItemQuarantined, Reason: reason}
}

func checkSkills(skills []string, subject models.Subject) error {
	catalog := map[string]bool{}
	for _, s := range subjectSkills[subject] {
		catalog[s] = true
	}
	for _, s := range skills {
		if !catalog[s] {
			return fmt.Errorf("skill %q not in the %s catalog", s, subject)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
