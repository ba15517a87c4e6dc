package models

// PosteriorSummary describes the Bayesian posterior over theta when the
// estimate came from the EAP estimator.
type PosteriorSummary struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	Mode float64 `json:"mode"`
}

// AbilityState is the current theta estimate for one (student, subject)
// within a session. Recomputed after every response; the engine never
// stores it, since it is always derivable from the response history.
type AbilityState struct {
	Theta         float64           `json:"theta"`          // ∈ [-3, 3]
	StandardError float64           `json:"standard_error"` // ≥ 0
	Confidence    float64           `json:"confidence"`     // ∈ [0, 100]
	Responses     int               `json:"responses"`
	Posterior     *PosteriorSummary `json:"posterior,omitempty"`
}

// AbilitySummary is the API-facing view of an ability estimate.
type AbilitySummary struct {
	Subject       Subject `json:"subject"`
	Theta         float64 `json:"theta"`
	Percentage    float64 `json:"percentage"` // theta mapped onto [0, 100]
	StandardError float64 `json:"standard_error"`
	Confidence    float64 `json:"confidence"`
	Responses     int     `json:"responses"`
}
