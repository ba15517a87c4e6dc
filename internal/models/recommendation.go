package models

// Recommendation is one ranked subject with its component scores.
// Derived, read-only output: recomputed on demand, never persisted.
type Recommendation struct {
	Subject        Subject         `json:"subject"`
	Category       SubjectCategory `json:"category"`
	AbilityScore   float64         `json:"ability_score"`   // 0–100
	InterestScore  float64         `json:"interest_score"`  // 0–100
	PotentialScore float64         `json:"potential_score"` // 0–100
	Score          float64         `json:"recommendation_score"`
	Confidence     float64         `json:"confidence"` // ∈ [0, 100]
	Rank           int             `json:"rank"`
	Reasoning      string          `json:"reasoning"`
	DataAvailable  bool            `json:"data_available"`
	Degrees        []string        `json:"suggested_degrees,omitempty"`
}

// ── API Request/Response Types ────────────────────────────

type RecommendationRequest struct {
	Limit       int      `json:"limit"`
	MinInterest *float64 `json:"min_interest,omitempty"`
}

type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Total           int              `json:"total"`
}
