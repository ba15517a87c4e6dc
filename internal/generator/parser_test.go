package generator

import (
	"strings"
	"testing"
)

const validItemJSON = `{"items":[{
	"skills":["fractions"],
	"difficulty":0.5,
	"discrimination":1.2,
	"guessing":0.25,
	"stem":"What is 1/2 + 1/4?",
	"choices":[
		{"choice_id":"A","text":"3/4"},
		{"choice_id":"B","text":"2/6"},
		{"choice_id":"C","text":"1/6"},
		{"choice_id":"D","text":"2/4"}
	],
	"correct_choice_id":"A",
	"explanation":"Convert to a common denominator of 4: 2/4 + 1/4 = 3/4."
}]}`

func TestParseResponseValid(t *testing.T) {
	batch, err := ParseResponse(validItemJSON)
	if err != nil {
		t.Fatalf("ParseResponse returned error: %v", err)
	}
	if len(batch.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(batch.Items))
	}
	if batch.Items[0].CorrectChoiceID != "A" {
		t.Errorf("CorrectChoiceID = %q, want A", batch.Items[0].CorrectChoiceID)
	}
}

func TestParseResponseStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validItemJSON + "\n```"
	if _, err := ParseResponse(fenced); err != nil {
		t.Errorf("ParseResponse with code fences returned error: %v", err)
	}

	bare := "```\n" + validItemJSON + "\n```"
	if _, err := ParseResponse(bare); err != nil {
		t.Errorf("ParseResponse with bare fences returned error: %v", err)
	}
}

func TestParseResponseRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseResponse("{not valid json"); err == nil {
		t.Error("ParseResponse should fail on malformed JSON")
	}
}

func TestParseResponseRejectsEmptyBatch(t *testing.T) {
	_, err := ParseResponse(`{"items":[]}`)
	if err == nil {
		t.Fatal("ParseResponse should fail on empty batch")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("error type = %T, want *ValidationError", err)
	}
}

func TestParseResponseValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "wrong choice count",
			mutate:  func(s string) string { return strings.Replace(s, `{"choice_id":"D","text":"2/4"}`, "", 1) },
			wantMsg: "expected 4 choices",
		},
		{
			name:    "bad correct choice id",
			mutate:  func(s string) string { return strings.Replace(s, `"correct_choice_id":"A"`, `"correct_choice_id":"E"`, 1) },
			wantMsg: "invalid correct_choice_id",
		},
		{
			name:    "empty stem",
			mutate:  func(s string) string { return strings.Replace(s, `"stem":"What is 1/2 + 1/4?"`, `"stem":""`, 1) },
			wantMsg: "empty stem",
		},
		{
			name:    "no skills",
			mutate:  func(s string) string { return strings.Replace(s, `"skills":["fractions"]`, `"skills":[]`, 1) },
			wantMsg: "no skill tags",
		},
	}

	for _, tt := range tests {
		mutated := tt.mutate(validItemJSON)
		if tt.name == "wrong choice count" {
			mutated = strings.Replace(mutated, `{"choice_id":"C","text":"1/6"},`, `{"choice_id":"C","text":"1/6"}`, 1)
		}
		_, err := ParseResponse(mutated)
		if err == nil {
			t.Errorf("%s: ParseResponse should fail", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantMsg) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err.Error(), tt.wantMsg)
		}
	}
}

func TestMockClientProducesParseableBatch(t *testing.T) {
	resp, err := NewMockClient().Generate(nil, "", "")
	if err != nil {
		t.Fatalf("mock Generate returned error: %v", err)
	}
	batch, err := ParseResponse(resp.Content)
	if err != nil {
		t.Fatalf("mock output failed parsing: %v", err)
	}
	if len(batch.Items) == 0 {
		t.Error("mock batch has no items")
	}
}
