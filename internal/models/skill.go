package models

import "time"

// SkillState is the Bayesian Knowledge Tracing state for one
// (student, skill). Updated incrementally, never overwritten wholesale.
type SkillState struct {
	StudentID     int64     `json:"student_id"`
	SkillID       string    `json:"skill_id"`
	Subject       Subject   `json:"subject"`
	PKnow         float64   `json:"p_know"` // ∈ [0, 1]
	Attempts      int       `json:"attempts"`
	CorrectCount  int       `json:"correct_count"`
	IsMastered    bool      `json:"is_mastered"`    // p_know ≥ 0.95
	NeedsPractice bool      `json:"needs_practice"` // p_know < 0.7
	UpdatedAt     time.Time `json:"updated_at"`
}

// Accuracy returns the observed accuracy ratio for this skill.
func (s SkillState) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.Attempts)
}
