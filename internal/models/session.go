package models

// ── API Request/Response Types ────────────────────────────

type StartSessionRequest struct {
	Subjects     []Subject `json:"subjects"`
	MinQuestions int       `json:"min_questions"`
	MaxQuestions int       `json:"max_questions"`
	Strategy     string    `json:"strategy,omitempty"` // max_information | difficulty_match | random
	Discovery    bool      `json:"discovery,omitempty"`
}

type StartSessionResponse struct {
	SessionID string    `json:"session_id"`
	Subjects  []Subject `json:"subjects"`
}

type NextItemResponse struct {
	Item            *ServedItem       `json:"item,omitempty"`
	SessionComplete bool              `json:"session_complete"`
	Progress        []SubjectProgress `json:"progress"`
}

type SubjectProgress struct {
	Subject  Subject `json:"subject"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Complete bool    `json:"complete"`
}

type SubmitResponseRequest struct {
	ItemID           int64   `json:"item_id"`
	SelectedChoiceID string  `json:"selected_choice_id"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
	Voluntary        bool    `json:"voluntary"`
}

type SubmitResponseResponse struct {
	Correct         bool            `json:"correct"`
	CorrectChoiceID string          `json:"correct_choice_id"`
	Explanation     string          `json:"explanation"`
	Ability         *AbilitySummary `json:"ability,omitempty"`
	SessionComplete bool            `json:"session_complete"`
}

type SessionResults struct {
	SessionID string            `json:"session_id"`
	Abilities []AbilitySummary  `json:"abilities"`
	Interests []InterestSummary `json:"interests"`
	Skills    []SkillState      `json:"skills"`
}
