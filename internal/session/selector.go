package session

import (
	"math"
	"math/rand"

	"github.com/pathwise/backend/internal/irt"
	"github.com/pathwise/backend/internal/models"
)

// Selector picks the next item for a subject from the eligible pool.
// It holds its own random source so sessions stay reproducible under
// test.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Select returns the next item for the subject, or false when no
// eligible item remains. Eligible means active, matching the subject,
// and not yet served in this session. The caller must MarkServed (or
// MarkExhausted) on the state afterwards.
func (sel *Selector) Select(state State, subject models.Subject, pool []models.Item, theta float64) (models.Item, bool) {
	eligible := make([]models.Item, 0, len(pool))
	for _, item := range pool {
		if item.Subject != subject || item.Status != models.ItemActive {
			continue
		}
		if state.UsedItemIDs[item.ID] {
			continue
		}
		eligible = append(eligible, item)
	}
	if len(eligible) == 0 {
		return models.Item{}, false
	}

	answered := 0
	for _, sub := range state.Subjects {
		if sub.Subject == subject {
			answered = sub.Answered
		}
	}

	// Opening item: no evidence yet, so theta carries only the prior.
	// Discovery sessions open at random to spread exposure across the
	// bank; otherwise open near medium difficulty.
	if answered == 0 {
		if state.Config.Discovery {
			return eligible[sel.rng.Intn(len(eligible))], true
		}
		return nearestDifficulty(eligible, 0), true
	}

	switch state.Config.Strategy {
	case StrategyRandom:
		return eligible[sel.rng.Intn(len(eligible))], true
	case StrategyDifficultyMatch:
		return nearestDifficulty(eligible, theta), true
	default:
		return maxInformation(eligible, theta), true
	}
}

// maxInformation picks the item with the highest Fisher information at
// the current theta estimate.
func maxInformation(items []models.Item, theta float64) models.Item {
	best := items[0]
	bestInfo := -1.0
	for _, item := range items {
		info := irt.Information(theta, item.Difficulty, item.Discrimination, item.Guessing)
		if info > bestInfo {
			best, bestInfo = item, info
		}
	}
	return best
}

func nearestDifficulty(items []models.Item, theta float64) models.Item {
	best := items[0]
	bestDist := math.Abs(best.Difficulty - theta)
	for _, item := range items[1:] {
		if d := math.Abs(item.Difficulty - theta); d < bestDist {
			best, bestDist = item, d
		}
	}
	return best
}
