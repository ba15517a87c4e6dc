package models

import "time"

// Interaction is one behavioral sample kept in the profile's bounded
// history window for trend analysis.
type Interaction struct {
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
	Correct          bool      `json:"correct"`
	Voluntary        bool      `json:"voluntary"`
	Completed        bool      `json:"completed"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// InterestProfile accumulates behavioral signals for one
// (student, subject) and carries the smoothed 0–100 interest score.
type InterestProfile struct {
	StudentID          int64         `json:"student_id"`
	Subject            Subject       `json:"subject"`
	InterestScore      float64       `json:"interest_score"` // ∈ [0, 100]
	TimeSpentSeconds   float64       `json:"time_spent_seconds"`
	QuestionsAttempted int           `json:"questions_attempted"`
	QuestionsCompleted int           `json:"questions_completed"`
	QuestionsCorrect   int           `json:"questions_correct"`
	VoluntaryAttempts  int           `json:"voluntary_attempts"`
	CompletionRate     float64       `json:"completion_rate"` // ∈ [0, 100]
	AvgTimePerQuestion float64       `json:"avg_time_per_question"`
	History            []Interaction `json:"history"` // bounded window
	UpdatedAt          time.Time     `json:"updated_at"`
}

type InterestLevel string

const (
	InterestVeryLow  InterestLevel = "very_low"
	InterestLow      InterestLevel = "low"
	InterestMedium   InterestLevel = "medium"
	InterestHigh     InterestLevel = "high"
	InterestVeryHigh InterestLevel = "very_high"
)

type EngagementTrend string

const (
	TrendIncreasing EngagementTrend = "increasing"
	TrendDecreasing EngagementTrend = "decreasing"
	TrendStable     EngagementTrend = "stable"
)

// EngagementPattern summarizes the recent interaction window.
type EngagementPattern struct {
	Trend       EngagementTrend `json:"trend"`
	Consistency float64         `json:"consistency"` // ∈ [0, 100]
	SampleSize  int             `json:"sample_size"`
}

// InterestSummary is the API-facing view of one profile.
type InterestSummary struct {
	Subject       Subject           `json:"subject"`
	InterestScore float64           `json:"interest_score"`
	Level         InterestLevel     `json:"level"`
	Pattern       EngagementPattern `json:"pattern"`
	Attempted     int               `json:"questions_attempted"`
	Voluntary     int               `json:"voluntary_attempts"`
}
