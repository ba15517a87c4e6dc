package mastery

import (
	"math"
	"time"

	"github.com/pathwise/backend/internal/models"
)

// Params are the four Bayesian Knowledge Tracing probabilities.
type Params struct {
	PInit  float64 // prior probability the skill is already known
	PLearn float64 // transition probability of learning on an attempt
	PSlip  float64 // probability of an error despite knowing
	PGuess float64 // probability of a correct answer despite not knowing
}

func DefaultParams() Params {
	return Params{
		PInit:  0.5,
		PLearn: 0.3,
		PSlip:  0.1,
		PGuess: 0.25,
	}
}

// Mastery classification thresholds.
const (
	MasteredThreshold      = 0.95
	NeedsPracticeThreshold = 0.7
)

// NewSkillState seeds a fresh state at the prior.
func NewSkillState(studentID int64, skillID string, subject models.Subject, p Params) models.SkillState {
	s := models.SkillState{
		StudentID: studentID,
		SkillID:   skillID,
		Subject:   subject,
		PKnow:     p.PInit,
		UpdatedAt: time.Now().UTC(),
	}
	return classify(s)
}

// Update applies one observed response: Bayes-update pKnow against the
// slip/guess likelihoods, then apply the learning transition. Returns a
// new state; the input is never mutated.
func Update(state models.SkillState, correct bool, p Params) models.SkillState {
	pKnow := clampUnit(state.PKnow)

	var numerator, denominator float64
	if correct {
		numerator = pKnow * (1 - p.PSlip)
		denominator = numerator + (1-pKnow)*p.PGuess
	} else {
		numerator = pKnow * p.PSlip
		denominator = numerator + (1-pKnow)*(1-p.PGuess)
	}
	posterior := numerator / math.Max(denominator, 1e-6)

	state.PKnow = clampUnit(posterior + (1-posterior)*p.PLearn)
	state.Attempts++
	if correct {
		state.CorrectCount++
	}
	state.UpdatedAt = time.Now().UTC()
	return classify(state)
}

// PredictResponseProbability estimates the chance of a correct answer on
// an item requiring every listed skill. Per-skill pKnow values multiply
// (conjunctive mastery), then slip/guess convert mastery into expected
// correctness. Skills with no recorded state fall back to the prior.
// Used for item pre-screening, not for live ability estimation.
func PredictResponseProbability(states map[string]models.SkillState, skills []string, p Params) float64 {
	if len(skills) == 0 {
		return p.PGuess
	}

	pAll := 1.0
	for _, skill := range skills {
		if s, ok := states[skill]; ok {
			pAll *= clampUnit(s.PKnow)
		} else {
			pAll *= p.PInit
		}
	}

	return clampUnit(pAll*(1-p.PSlip) + (1-pAll)*p.PGuess)
}

func classify(s models.SkillState) models.SkillState {
	s.IsMastered = s.PKnow >= MasteredThreshold
	s.NeedsPractice = s.PKnow < NeedsPracticeThreshold
	return s
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
