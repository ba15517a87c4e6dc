package session

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pathwise/backend/internal/models"
)

func mathPool(n int) []models.Item {
	pool := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, models.Item{
			ID:             int64(i + 1),
			Subject:        models.SubjectMathematics,
			Difficulty:     -2 + 4*float64(i)/float64(n),
			Discrimination: 1.2,
			Guessing:       0.25,
			Status:         models.ItemActive,
		})
	}
	return pool
}

func TestNewRejectsBadConfig(t *testing.T) {
	subjects := []models.Subject{models.SubjectMathematics}

	if _, err := New(1, nil, DefaultConfig()); err == nil {
		t.Error("New with no subjects should fail")
	}
	if _, err := New(1, subjects, Config{MinQuestions: -1, MaxQuestions: 5}); err == nil {
		t.Error("New with negative min should fail")
	}
	if _, err := New(1, subjects, Config{MinQuestions: 10, MaxQuestions: 5}); err == nil {
		t.Error("New with min > max should fail")
	}
	if _, err := New(1, subjects, Config{MinQuestions: 1, MaxQuestions: 5, Strategy: "clever"}); err == nil {
		t.Error("New with unknown strategy should fail")
	}
	if _, err := New(1, []models.Subject{"alchemy"}, DefaultConfig()); err == nil {
		t.Error("New with unknown subject should fail")
	}
}

func TestNoRepeatedItems(t *testing.T) {
	state, err := New(1, []models.Subject{models.SubjectMathematics}, Config{
		MinQuestions: 3, MaxQuestions: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pool := mathPool(10)
	sel := NewSelector(42)
	seen := map[int64]bool{}

	for i := 0; i < 10; i++ {
		subject, ok := state.NextSubject()
		if !ok {
			break
		}
		item, ok := sel.Select(state, subject, pool, 0)
		if !ok {
			break
		}
		if seen[item.ID] {
			t.Fatalf("item %d served twice", item.ID)
		}
		seen[item.ID] = true
		state = state.MarkServed(item.ID)
		state = state.RecordResponse(subject, i%2 == 0)
	}
}

func TestEarlyStopOnHighConfidence(t *testing.T) {
	state, err := New(1, []models.Subject{models.SubjectMathematics}, Config{
		MinQuestions: 2, MaxQuestions: 7,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pool := mathPool(10)
	sel := NewSelector(1)

	// Two correct answers: p = 1, se = 0, confidence = 100.
	for i := 0; i < 2; i++ {
		subject, _ := state.NextSubject()
		item, ok := sel.Select(state, subject, pool, 0)
		if !ok {
			t.Fatal("pool exhausted unexpectedly")
		}
		state = state.MarkServed(item.ID)
		state = state.RecordResponse(subject, true)
	}

	if !state.Complete() {
		t.Errorf("session phase = %v after 2/2 correct with min 2, want terminated", state.Phase)
	}
	if _, ok := state.NextSubject(); ok {
		t.Error("NextSubject should report no remaining subjects after early stop")
	}
}

func TestRunsToMaxOnMixedAnswers(t *testing.T) {
	state, _ := New(1, []models.Subject{models.SubjectMathematics}, Config{
		MinQuestions: 2, MaxQuestions: 6,
	})
	pool := mathPool(20)
	sel := NewSelector(7)

	answers := []bool{true, false, true, false, true, false}
	for i, correct := range answers {
		if state.Complete() {
			t.Fatalf("session terminated early at question %d with alternating answers", i+1)
		}
		subject, _ := state.NextSubject()
		item, _ := sel.Select(state, subject, pool, 0)
		state = state.MarkServed(item.ID)
		state = state.RecordResponse(subject, correct)
	}
	if !state.Complete() {
		t.Error("session should terminate at max questions")
	}
}

func TestExhaustedPoolCompletesSubject(t *testing.T) {
	state, _ := New(1, []models.Subject{models.SubjectMathematics}, Config{
		MinQuestions: 5, MaxQuestions: 10,
	})
	pool := mathPool(3)
	sel := NewSelector(3)

	for i := 0; i < 5; i++ {
		subject, ok := state.NextSubject()
		if !ok {
			break
		}
		item, ok := sel.Select(state, subject, pool, 0)
		if !ok {
			state = state.MarkExhausted(subject)
			continue
		}
		state = state.MarkServed(item.ID)
		state = state.RecordResponse(subject, true)
	}

	if !state.Complete() {
		t.Error("session should terminate when the item pool runs dry, not deadlock")
	}
	if got := state.Progress()[0].Answered; got != 3 {
		t.Errorf("answered = %d, want all 3 pool items", got)
	}
}

func TestMultiSubjectRoundRobin(t *testing.T) {
	subjects := []models.Subject{models.SubjectMathematics, models.SubjectPhysics}
	state, _ := New(1, subjects, Config{MinQuestions: 2, MaxQuestions: 4})

	order := []models.Subject{}
	for i := 0; i < 4; i++ {
		subject, ok := state.NextSubject()
		if !ok {
			break
		}
		order = append(order, subject)
		state = state.MarkServed(int64(100 + i))
		state = state.RecordResponse(subject, i%2 == 0)
	}

	// Fewest-answered-first interleaves the two subjects.
	want := []models.Subject{models.SubjectMathematics, models.SubjectPhysics, models.SubjectMathematics, models.SubjectPhysics}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Errorf("subject order = %v, want %v", order, want)
	}
}

func TestRecordResponseDoesNotMutateOriginal(t *testing.T) {
	state, _ := New(1, []models.Subject{models.SubjectMathematics}, Config{MinQuestions: 1, MaxQuestions: 5})

	served := state.MarkServed(7)
	if state.UsedItemIDs[7] {
		t.Error("MarkServed mutated the original state's used-item set")
	}

	after := served.RecordResponse(models.SubjectMathematics, true)
	if served.Subjects[0].Answered != 0 {
		t.Error("RecordResponse mutated the original state's tallies")
	}
	if after.Subjects[0].Answered != 1 {
		t.Errorf("answered = %d, want 1", after.Subjects[0].Answered)
	}
}

func TestSelectorStrategies(t *testing.T) {
	pool := mathPool(10)
	state, _ := New(1, []models.Subject{models.SubjectMathematics}, Config{
		MinQuestions: 1, MaxQuestions: 10, Strategy: StrategyDifficultyMatch,
	})
	sel := NewSelector(11)

	// Get past the opening item so the strategy applies.
	first, _ := sel.Select(state, models.SubjectMathematics, pool, 0)
	state = state.MarkServed(first.ID)
	state = state.RecordResponse(models.SubjectMathematics, true)

	theta := 1.5
	item, ok := sel.Select(state, models.SubjectMathematics, pool, theta)
	if !ok {
		t.Fatal("pool exhausted unexpectedly")
	}
	for _, other := range pool {
		if other.ID == first.ID || other.ID == item.ID {
			continue
		}
		if abs(other.Difficulty-theta) < abs(item.Difficulty-theta) {
			t.Errorf("difficulty_match chose b=%v, but b=%v is closer to theta %v",
				item.Difficulty, other.Difficulty, theta)
		}
	}
}

func TestSelectorSkipsQuarantinedItems(t *testing.T) {
	pool := mathPool(3)
	pool[1].Status = models.ItemQuarantined
	state, _ := New(1, []models.Subject{models.SubjectMathematics}, DefaultConfig())
	sel := NewSelector(5)

	for i := 0; i < 3; i++ {
		item, ok := sel.Select(state, models.SubjectMathematics, pool, 0)
		if !ok {
			break
		}
		if item.ID == pool[1].ID {
			t.Fatal("selector served a quarantined item")
		}
		state = state.MarkServed(item.ID)
	}
}

func TestStateSurvivesSerialization(t *testing.T) {
	state, _ := New(9, []models.Subject{models.SubjectMathematics, models.SubjectHistory}, Config{
		MinQuestions: 2, MaxQuestions: 6,
	})
	state = state.MarkServed(101)
	state = state.RecordResponse(models.SubjectMathematics, true)
	state = state.MarkServed(102)

	payload, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored State
	if err := json.Unmarshal(payload, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.ID != state.ID || restored.StudentID != state.StudentID {
		t.Errorf("identity fields lost: got (%s, %d)", restored.ID, restored.StudentID)
	}
	if !restored.UsedItemIDs[101] || !restored.UsedItemIDs[102] {
		t.Error("used-item set lost across serialization; resumed sessions could repeat items")
	}
	if restored.PendingItem != 102 {
		t.Errorf("pending item = %d, want 102", restored.PendingItem)
	}
	if restored.Subjects[0].Answered != 1 || restored.Subjects[0].Correct != 1 {
		t.Errorf("subject tallies lost: %+v", restored.Subjects[0])
	}
	if restored.Config.MaxQuestions != 6 {
		t.Errorf("config lost: %+v", restored.Config)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
