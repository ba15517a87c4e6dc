package generator

import (
	"encoding/json"
	"fmt"
	"strings"
)

type GeneratedBatch struct {
	Items []GeneratedItem `json:"items"`
}

// GeneratedItem carries IRT parameters as json.Number so that
// non-numeric junk surfaces as a screening failure instead of a silent
// zero.
type GeneratedItem struct {
	Skills          []string          `json:"skills"`
	Difficulty      json.Number       `json:"difficulty"`
	Discrimination  json.Number       `json:"discrimination"`
	Guessing        json.Number       `json:"guessing"`
	Stem            string            `json:"stem"`
	Choices         []GeneratedChoice `json:"choices"`
	CorrectChoiceID string            `json:"correct_choice_id"`
	Explanation     string            `json:"explanation"`
}

type GeneratedChoice struct {
	ChoiceID string `json:"choice_id"`
	Text     string `json:"text"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

func ParseResponse(responseBody string) (*GeneratedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	var batch GeneratedBatch
	if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := validateBatch(&batch); err != nil {
		return nil, err
	}

	return &batch, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

var validChoiceIDs = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// validateBatch checks structure only. Numeric IRT parameter screening
// happens later in Screen, where out-of-range values are clamped or
// quarantined rather than rejected wholesale.
func validateBatch(batch *GeneratedBatch) error {
	var errs []string

	if len(batch.Items) == 0 {
		return &ValidationError{Errors: []string{"no items in batch"}}
	}

	for i, item := range batch.Items {
		n := i + 1

		if len(item.Choices) != 4 {
			errs = append(errs, fmt.Sprintf("item %d: expected 4 choices, got %d", n, len(item.Choices)))
			continue
		}

		expectedIDs := []string{"A", "B", "C", "D"}
		for j, c := range item.Choices {
			if c.ChoiceID != expectedIDs[j] {
				errs = append(errs, fmt.Sprintf("item %d: choice %d has id %q, expected %q", n, j+1, c.ChoiceID, expectedIDs[j]))
			}
			if strings.TrimSpace(c.Text) == "" {
				errs = append(errs, fmt.Sprintf("item %d: choice %s has empty text", n, c.ChoiceID))
			}
		}

		if !validChoiceIDs[item.CorrectChoiceID] {
			errs = append(errs, fmt.Sprintf("item %d: invalid correct_choice_id %q", n, item.CorrectChoiceID))
		}
		if strings.TrimSpace(item.Stem) == "" {
			errs = append(errs, fmt.Sprintf("item %d: empty stem", n))
		}
		if strings.TrimSpace(item.Explanation) == "" {
			errs = append(errs, fmt.Sprintf("item %d: empty explanation", n))
		}
		if len(item.Skills) == 0 {
			errs = append(errs, fmt.Sprintf("item %d: no skill tags", n))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
