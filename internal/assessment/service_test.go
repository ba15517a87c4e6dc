package assessment

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/pathwise/backend/internal/irt"
	"github.com/pathwise/backend/internal/models"
	"github.com/pathwise/backend/internal/session"
)

// memoryStore backs service tests without a database.
type memoryStore struct {
	nextItemID int64
	items      map[int64]models.Item
	sessions   map[string]session.State
	events     []models.ResponseEvent
	eventKeys  map[string]bool
	skills     map[string]models.SkillState
	interests  map[string]models.InterestProfile
	grades     map[int64]int

	failSessionSaves int // next N SaveSession calls fail
	skillUpserts     int
	interestUpserts  int
}

var _ Storage = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{
		items:     map[int64]models.Item{},
		sessions:  map[string]session.State{},
		eventKeys: map[string]bool{},
		skills:    map[string]models.SkillState{},
		interests: map[string]models.InterestProfile{},
		grades:    map[int64]int{},
	}
}

func (m *memoryStore) InsertItem(item models.Item, source, quarantineReason, modelUsed string) (int64, error) {
	m.nextItemID++
	item.ID = m.nextItemID
	m.items[item.ID] = item
	return item.ID, nil
}

func (m *memoryStore) GetItem(id int64) (models.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return models.Item{}, fmt.Errorf("get item %d: sql: no rows in result set", id)
	}
	return item, nil
}

func (m *memoryStore) ListActiveItems(subject models.Subject) ([]models.Item, error) {
	ids := make([]int64, 0, len(m.items))
	for id, item := range m.items {
		if item.Subject == subject && item.Status == models.ItemActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, m.items[id])
	}
	return items, nil
}

func (m *memoryStore) RecordItemServed(itemID int64, correct bool) error {
	item := m.items[itemID]
	item.TimesServed++
	if correct {
		item.TimesCorrect++
	}
	m.items[itemID] = item
	return nil
}

func (m *memoryStore) InsertResponseEvent(ev models.ResponseEvent) (bool, error) {
	if ev.SessionID != nil {
		key := fmt.Sprintf("%s|%d", *ev.SessionID, ev.ItemID)
		if m.eventKeys[key] {
			return false, nil
		}
		m.eventKeys[key] = true
	}
	m.events = append(m.events, ev)
	return true, nil
}

func (m *memoryStore) ListResponsesForEstimation(studentID int64, subject models.Subject) ([]irt.Response, error) {
	var responses []irt.Response
	for _, ev := range m.events {
		if ev.StudentID != studentID || ev.Subject != subject {
			continue
		}
		item := m.items[ev.ItemID]
		responses = append(responses, irt.Response{
			Correct:        ev.Correct,
			Difficulty:     item.Difficulty,
			Discrimination: item.Discrimination,
			Guessing:       item.Guessing,
		})
	}
	return responses, nil
}

func (m *memoryStore) CountRecentResponses(studentID int64, subject models.Subject, limit int) (answered, correct int, err error) {
	var matched []models.ResponseEvent
	for _, ev := range m.events {
		if ev.StudentID == studentID && ev.Subject == subject {
			matched = append(matched, ev)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	for _, ev := range matched {
		answered++
		if ev.Correct {
			correct++
		}
	}
	return answered, correct, nil
}

func (m *memoryStore) SaveSession(state session.State) error {
	if m.failSessionSaves > 0 {
		m.failSessionSaves--
		return fmt.Errorf("save session %s: connection reset", state.ID)
	}
	m.sessions[state.ID] = state
	return nil
}

func (m *memoryStore) LoadSession(sessionID string, studentID int64) (session.State, error) {
	state, ok := m.sessions[sessionID]
	if !ok || state.StudentID != studentID {
		return session.State{}, fmt.Errorf("load session %s: sql: no rows in result set", sessionID)
	}
	return state, nil
}

func (m *memoryStore) UpsertSkillState(state models.SkillState) error {
	m.skillUpserts++
	m.skills[fmt.Sprintf("%d|%s", state.StudentID, state.SkillID)] = state
	return nil
}

func (m *memoryStore) ListSkillStates(studentID int64, subject models.Subject) (map[string]models.SkillState, error) {
	states := map[string]models.SkillState{}
	for _, st := range m.skills {
		if st.StudentID == studentID && st.Subject == subject {
			states[st.SkillID] = st
		}
	}
	return states, nil
}

func (m *memoryStore) ListAllSkillStates(studentID int64) ([]models.SkillState, error) {
	var states []models.SkillState
	for _, st := range m.skills {
		if st.StudentID == studentID {
			states = append(states, st)
		}
	}
	return states, nil
}

func (m *memoryStore) UpsertInterestProfile(p models.InterestProfile) error {
	m.interestUpserts++
	m.interests[fmt.Sprintf("%d|%s", p.StudentID, p.Subject)] = p
	return nil
}

func (m *memoryStore) GetInterestProfile(studentID int64, subject models.Subject) (models.InterestProfile, bool, error) {
	p, ok := m.interests[fmt.Sprintf("%d|%s", studentID, subject)]
	return p, ok, nil
}

func (m *memoryStore) ListInterestProfiles(studentID int64) ([]models.InterestProfile, error) {
	var profiles []models.InterestProfile
	for _, p := range m.interests {
		if p.StudentID == studentID {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (m *memoryStore) GetGradeLevel(studentID int64) (int, error) {
	grade, ok := m.grades[studentID]
	if !ok {
		return 0, fmt.Errorf("get grade level: sql: no rows in result set")
	}
	return grade, nil
}

func seedMathItems(store *memoryStore, count int) {
	for i := 0; i < count; i++ {
		store.InsertItem(models.Item{
			Subject:        models.SubjectMathematics,
			Skills:         []string{"fractions"},
			Difficulty:     -1 + float64(i)*0.5,
			Discrimination: 1.2,
			Guessing:       0.25,
			Stem:           fmt.Sprintf("stem %d", i),
			CorrectChoice:  "A",
			Status:         models.ItemActive,
		}, "manual", "", "")
	}
}

func TestSubmitRetryAfterFailedSaveDoesNotDoubleCount(t *testing.T) {
	store := newMemoryStore()
	store.grades[1] = 6
	seedMathItems(store, 3)
	svc := NewService(store)

	start, err := svc.StartSession(1, models.StartSessionRequest{
		Subjects: []models.Subject{models.SubjectMathematics}, MinQuestions: 2, MaxQuestions: 4,
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	next, err := svc.NextItem(1, start.SessionID)
	if err != nil || next.Item == nil {
		t.Fatalf("NextItem: %v (item %v)", err, next.Item)
	}

	req := models.SubmitResponseRequest{ItemID: next.Item.ID, SelectedChoiceID: "A", TimeTakenSeconds: 45}

	// The fan-out lands but the session save fails; the client retries.
	store.failSessionSaves = 1
	if _, err := svc.SubmitResponse(1, start.SessionID, req); err == nil {
		t.Fatal("SubmitResponse should surface the failed session save")
	}
	if len(store.events) != 1 || store.skillUpserts != 1 || store.interestUpserts != 1 {
		t.Fatalf("after failed save: events=%d skillUpserts=%d interestUpserts=%d, want 1 each",
			len(store.events), store.skillUpserts, store.interestUpserts)
	}

	resp, err := svc.SubmitResponse(1, start.SessionID, req)
	if err != nil {
		t.Fatalf("retry SubmitResponse: %v", err)
	}
	if !resp.Correct {
		t.Error("retry should grade against the same item")
	}
	if len(store.events) != 1 {
		t.Errorf("events = %d after retry, want 1 (no duplicate history)", len(store.events))
	}
	if store.skillUpserts != 1 {
		t.Errorf("skill upserts = %d after retry, want 1 (no double mastery update)", store.skillUpserts)
	}
	if store.interestUpserts != 1 {
		t.Errorf("interest upserts = %d after retry, want 1 (no double interest update)", store.interestUpserts)
	}

	state := store.sessions[start.SessionID]
	if state.PendingItem != 0 {
		t.Errorf("pending item = %d after retry, want cleared", state.PendingItem)
	}
	if state.Subjects[0].Answered != 1 {
		t.Errorf("answered = %d after retry, want 1", state.Subjects[0].Answered)
	}
}

func TestExhaustedPoolSmoothsInterestOnce(t *testing.T) {
	store := newMemoryStore()
	store.grades[1] = 6
	seedMathItems(store, 2)
	svc := NewService(store)

	start, err := svc.StartSession(1, models.StartSessionRequest{
		Subjects: []models.Subject{models.SubjectMathematics}, MinQuestions: 5, MaxQuestions: 10,
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	for i := 0; i < 2; i++ {
		next, err := svc.NextItem(1, start.SessionID)
		if err != nil || next.Item == nil {
			t.Fatalf("NextItem %d: %v (item %v)", i, err, next.Item)
		}
		if _, err := svc.SubmitResponse(1, start.SessionID, models.SubmitResponseRequest{
			ItemID: next.Item.ID, SelectedChoiceID: "A", TimeTakenSeconds: 50,
		}); err != nil {
			t.Fatalf("SubmitResponse %d: %v", i, err)
		}
	}

	// Pool is empty before the stopping rule can fire; the session must
	// finish here and fold the session into the long-lived score.
	next, err := svc.NextItem(1, start.SessionID)
	if err != nil {
		t.Fatalf("NextItem on exhausted pool: %v", err)
	}
	if !next.SessionComplete {
		t.Fatal("session should complete when the item pool runs dry")
	}
	if store.interestUpserts != 3 {
		t.Errorf("interest upserts = %d, want 3 (two responses + one session smoothing)", store.interestUpserts)
	}

	profile, found, _ := store.GetInterestProfile(1, models.SubjectMathematics)
	if !found {
		t.Fatal("interest profile missing after session")
	}
	if profile.InterestScore != math.Round(profile.InterestScore) {
		t.Errorf("interest score = %v, want the smoothed (rounded) session value", profile.InterestScore)
	}

	// Polling a finished session must not smooth again.
	if _, err := svc.NextItem(1, start.SessionID); err != nil {
		t.Fatalf("NextItem on finished session: %v", err)
	}
	if store.interestUpserts != 3 {
		t.Errorf("interest upserts = %d after poll, want still 3", store.interestUpserts)
	}
}

func TestPotentialScoreUsesObservedSkillAccuracy(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store)

	// No recent responses: the attempts-weighted skill accuracy stands
	// in for the recent-accuracy term.
	skills := map[string]models.SkillState{
		"fractions": {StudentID: 1, SkillID: "fractions", Subject: models.SubjectMathematics, PKnow: 0.6, Attempts: 4, CorrectCount: 3},
		"ratios":    {StudentID: 1, SkillID: "ratios", Subject: models.SubjectMathematics, PKnow: 0.3},
	}

	// headroom = 1 - 0.45 = 0.55, observed accuracy = 3/4.
	got := svc.potentialScore(1, models.SubjectMathematics, skills)
	if got != 65 {
		t.Errorf("potentialScore = %v, want 65", got)
	}

	if acc := observedSkillAccuracy(map[string]models.SkillState{}); acc != 0.5 {
		t.Errorf("observedSkillAccuracy(empty) = %v, want neutral 0.5", acc)
	}
}
