package assessment

import (
	"context"
	"fmt"
	"log"

	"github.com/pathwise/backend/internal/generator"
	"github.com/pathwise/backend/internal/models"
)

// BatchOutcome summarizes one authoring run.
type BatchOutcome struct {
	Requested   int    `json:"requested"`
	Inserted    int    `json:"inserted"`
	Quarantined int    `json:"quarantined"`
	Model       string `json:"model"`
}

// SetGenerator attaches the item-authoring backend. Optional; manual
// item creation works without it.
func (s *Service) SetGenerator(gen *generator.Generator) {
	s.gen = gen
}

// CreateItem validates and stores a manually authored item. Parameter
// drift is clamped the same way generated items are screened.
func (s *Service) CreateItem(item models.Item) (int64, error) {
	if !models.ValidSubjects[item.Subject] {
		return 0, fmt.Errorf("unknown subject %q", item.Subject)
	}
	if len(item.Choices) != 4 {
		return 0, fmt.Errorf("expected 4 choices, got %d", len(item.Choices))
	}
	validCorrect := false
	for _, c := range item.Choices {
		if c.ChoiceID == item.CorrectChoice {
			validCorrect = true
		}
	}
	if !validCorrect {
		return 0, fmt.Errorf("correct_choice_id %q does not match any choice", item.CorrectChoice)
	}
	if item.Stem == "" {
		return 0, fmt.Errorf("stem is required")
	}
	if len(item.Skills) == 0 {
		return 0, fmt.Errorf("at least one skill tag is required")
	}

	item.Difficulty = clampFloat(item.Difficulty, models.DifficultyMin, models.DifficultyMax)
	item.Discrimination = clampFloat(item.Discrimination, models.DiscriminationMin, models.DiscriminationMax)
	if item.Guessing < 0 || item.Guessing >= 1 {
		item.Guessing = models.DefaultGuessing
	}
	item.Status = models.ItemActive

	return s.store.InsertItem(item, "manual", "", "")
}

// GenerateItems runs one authoring batch and screens every produced
// item before it can reach the bank. Quarantined items are stored with
// their reason for later review, never served.
func (s *Service) GenerateItems(ctx context.Context, subject models.Subject, targetDifficulty float64, count int) (BatchOutcome, error) {
	if s.gen == nil {
		return BatchOutcome{}, fmt.Errorf("item generator not configured")
	}
	if !models.ValidSubjects[subject] {
		return BatchOutcome{}, fmt.Errorf("unknown subject %q", subject)
	}
	if count <= 0 || count > 20 {
		return BatchOutcome{}, fmt.Errorf("count must be between 1 and 20")
	}

	batch, _, err := s.gen.GenerateItemBatch(ctx, subject, targetDifficulty, count)
	if err != nil {
		return BatchOutcome{}, err
	}

	outcome := BatchOutcome{Requested: count, Model: s.gen.ModelName()}
	for _, g := range batch.Items {
		res := generator.Screen(g, subject)
		if _, err := s.store.InsertItem(res.Item, "generated", res.Reason, s.gen.ModelName()); err != nil {
			return outcome, err
		}
		if res.Status == models.ItemQuarantined {
			outcome.Quarantined++
			log.Printf("[assessment] WARN: generated item quarantined: %s", res.Reason)
		} else {
			outcome.Inserted++
		}
	}
	return outcome, nil
}

// ListItems exposes the active serving pool for a subject.
func (s *Service) ListItems(subject models.Subject) ([]models.Item, error) {
	if !models.ValidSubjects[subject] {
		return nil, fmt.Errorf("unknown subject %q", subject)
	}
	return s.store.ListActiveItems(subject)
}

// Profile aggregates the student's standing across every subject with
// recorded evidence.
func (s *Service) Profile(studentID int64) (models.StudentProfile, error) {
	var profile models.StudentProfile

	for _, subject := range models.AllSubjects {
		summary := s.abilitySummary(studentID, subject)
		if summary.Responses > 0 {
			profile.Abilities = append(profile.Abilities, summary)
		}
	}

	interests, err := s.store.ListInterestProfiles(studentID)
	if err != nil {
		return models.StudentProfile{}, err
	}
	for _, p := range interests {
		profile.Interests = append(profile.Interests, s.interestSummary(p))
	}

	skills, err := s.store.ListAllSkillStates(studentID)
	if err != nil {
		return models.StudentProfile{}, err
	}
	profile.Skills = skills

	return profile, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
