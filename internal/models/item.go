package models

import "time"

type ItemStatus string

const (
	ItemActive      ItemStatus = "active"
	ItemQuarantined ItemStatus = "quarantined"
	ItemRetired     ItemStatus = "retired"
)

// IRT parameter domains. Items outside these ranges are clamped at
// ingestion or quarantined if the values are not numbers at all.
const (
	DifficultyMin     = -3.0
	DifficultyMax     = 3.0
	DiscriminationMin = 0.5
	DiscriminationMax = 2.5
	DefaultGuessing   = 0.25
)

// Item is a calibrated question in the item bank. The content payload
// (stem, choices) is opaque to the engine packages; only the IRT
// parameters and skill tags participate in computation.
type Item struct {
	ID             int64      `json:"id"`
	Subject        Subject    `json:"subject"`
	Skills         []string   `json:"skills"`
	Difficulty     float64    `json:"difficulty"`     // b ∈ [-3, 3]
	Discrimination float64    `json:"discrimination"` // a ∈ [0.5, 2.5]
	Guessing       float64    `json:"guessing"`       // c ∈ [0, 1)
	Stem           string     `json:"stem"`
	Choices        []Choice   `json:"choices"`
	CorrectChoice  string     `json:"correct_choice_id"`
	Explanation    string     `json:"explanation"`
	Status         ItemStatus `json:"status"`
	TimesServed    int        `json:"times_served"`
	TimesCorrect   int        `json:"times_correct"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Choice struct {
	ChoiceID string `json:"choice_id"`
	Text     string `json:"text"`
}

// ServedItem strips answer data for serving to the presentation layer.
type ServedItem struct {
	ID         int64    `json:"id"`
	Subject    Subject  `json:"subject"`
	Skills     []string `json:"skills"`
	Difficulty float64  `json:"difficulty"`
	Stem       string   `json:"stem"`
	Choices    []Choice `json:"choices"`
}

func (i *Item) ToServedItem() ServedItem {
	return ServedItem{
		ID:         i.ID,
		Subject:    i.Subject,
		Skills:     i.Skills,
		Difficulty: i.Difficulty,
		Stem:       i.Stem,
		Choices:    i.Choices,
	}
}

// ResponseEvent is one answered item. Append-only: created by the
// presentation layer, consumed by the engine, never mutated.
type ResponseEvent struct {
	ID               int64     `json:"id"`
	StudentID        int64     `json:"student_id"`
	SessionID        *string   `json:"session_id,omitempty"`
	ItemID           int64     `json:"item_id"`
	Subject          Subject   `json:"subject"`
	Correct          bool      `json:"correct"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
	Voluntary        bool      `json:"voluntary"`
	AnsweredAt       time.Time `json:"answered_at"`
}
