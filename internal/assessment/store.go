package assessment

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pathwise/backend/internal/irt"
	"github.com/pathwise/backend/internal/models"
	"github.com/pathwise/backend/internal/session"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Item bank ──────────────────────────────────────────────

func (s *Store) InsertItem(item models.Item, source string, quarantineReason string, modelUsed string) (int64, error) {
	choices, err := json.Marshal(item.Choices)
	if err != nil {
		return 0, fmt.Errorf("marshal choices: %w", err)
	}

	var id int64
	err = s.db.QueryRow(
		`INSERT INTO items (subject, skills, difficulty, discrimination, guessing, stem, choices,
		                    correct_choice_id, explanation, status, source, quarantine_reason, model_used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), NULLIF($13, ''), $14)
		 RETURNING id`,
		item.Subject, pq.Array(item.Skills), item.Difficulty, item.Discrimination, item.Guessing,
		item.Stem, choices, item.CorrectChoice, item.Explanation, item.Status,
		source, quarantineReason, modelUsed, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

func (s *Store) GetItem(id int64) (models.Item, error) {
	var item models.Item
	var choices []byte
	err := s.db.QueryRow(
		`SELECT id, subject, skills, difficulty, discrimination, guessing, stem, choices,
		        correct_choice_id, explanation, status, times_served, times_correct, created_at
		 FROM items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Subject, pq.Array(&item.Skills), &item.Difficulty, &item.Discrimination,
		&item.Guessing, &item.Stem, &choices, &item.CorrectChoice, &item.Explanation,
		&item.Status, &item.TimesServed, &item.TimesCorrect, &item.CreatedAt)
	if err != nil {
		return models.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	if err := json.Unmarshal(choices, &item.Choices); err != nil {
		return models.Item{}, fmt.Errorf("unmarshal choices for item %d: %w", id, err)
	}
	return item, nil
}

// ListActiveItems returns the serving pool for a subject. The pool is
// read-only per request; concurrent sessions share it safely.
func (s *Store) ListActiveItems(subject models.Subject) ([]models.Item, error) {
	rows, err := s.db.Query(
		`SELECT id, subject, skills, difficulty, discrimination, guessing, stem, choices,
		        correct_choice_id, explanation, status, times_served, times_correct, created_at
		 FROM items WHERE subject = $1 AND status = 'active'
		 ORDER BY times_served ASC, id ASC`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("list items for %s: %w", subject, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		var choices []byte
		if err := rows.Scan(&item.ID, &item.Subject, pq.Array(&item.Skills), &item.Difficulty,
			&item.Discrimination, &item.Guessing, &item.Stem, &choices, &item.CorrectChoice,
			&item.Explanation, &item.Status, &item.TimesServed, &item.TimesCorrect, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if err := json.Unmarshal(choices, &item.Choices); err != nil {
			return nil, fmt.Errorf("unmarshal choices: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) RecordItemServed(itemID int64, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	_, err := s.db.Exec(
		`UPDATE items SET times_served = times_served + 1, times_correct = times_correct + $1 WHERE id = $2`,
		correctInc, itemID,
	)
	if err != nil {
		return fmt.Errorf("update item stats: %w", err)
	}
	return nil
}

// ── Response events ────────────────────────────────────────

// InsertResponseEvent appends one response to the history. Inserts are
// idempotent per (session, item): a retry after a partial failure
// reports inserted = false instead of duplicating the event.
func (s *Store) InsertResponseEvent(ev models.ResponseEvent) (bool, error) {
	res, err := s.db.Exec(
		`INSERT INTO response_events (student_id, session_id, item_id, subject, correct, time_taken_seconds, voluntary, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id, item_id) WHERE session_id IS NOT NULL DO NOTHING`,
		ev.StudentID, ev.SessionID, ev.ItemID, ev.Subject, ev.Correct, ev.TimeTakenSeconds, ev.Voluntary, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("insert response event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert response event: %w", err)
	}
	return rows > 0, nil
}

// ListResponsesForEstimation joins the response history with item IRT
// parameters so ability can always be rebuilt from the history alone.
func (s *Store) ListResponsesForEstimation(studentID int64, subject models.Subject) ([]irt.Response, error) {
	rows, err := s.db.Query(
		`SELECT e.correct, i.difficulty, i.discrimination, i.guessing
		 FROM response_events e
		 JOIN items i ON i.id = e.item_id
		 WHERE e.student_id = $1 AND e.subject = $2
		 ORDER BY e.answered_at ASC`,
		studentID, subject,
	)
	if err != nil {
		return nil, fmt.Errorf("list responses for %s: %w", subject, err)
	}
	defer rows.Close()

	var responses []irt.Response
	for rows.Next() {
		var r irt.Response
		if err := rows.Scan(&r.Correct, &r.Difficulty, &r.Discrimination, &r.Guessing); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *Store) CountRecentResponses(studentID int64, subject models.Subject, limit int) (answered, correct int, err error) {
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0)
		 FROM (SELECT correct FROM response_events
		       WHERE student_id = $1 AND subject = $2
		       ORDER BY answered_at DESC LIMIT $3) recent`,
		studentID, subject, limit,
	).Scan(&answered, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("count recent responses: %w", err)
	}
	return answered, correct, nil
}

// ── Sessions ───────────────────────────────────────────────

func (s *Store) SaveSession(state session.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, student_id, state, complete, started_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, complete = EXCLUDED.complete, updated_at = NOW()`,
		state.ID, state.StudentID, payload, state.Complete(), state.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

// LoadSession restores the full state machine snapshot, including the
// used-item set, so abandoned sessions resume exactly where they left
// off.
func (s *Store) LoadSession(sessionID string, studentID int64) (session.State, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT state FROM sessions WHERE id = $1 AND student_id = $2`,
		sessionID, studentID,
	).Scan(&payload)
	if err != nil {
		return session.State{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var state session.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return session.State{}, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return state, nil
}

// ── Skill states ───────────────────────────────────────────

func (s *Store) UpsertSkillState(state models.SkillState) error {
	_, err := s.db.Exec(
		`INSERT INTO skill_states (student_id, skill_id, subject, p_know, attempts, correct_count, is_mastered, needs_practice, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (student_id, skill_id) DO UPDATE SET
		   p_know = EXCLUDED.p_know, attempts = EXCLUDED.attempts, correct_count = EXCLUDED.correct_count,
		   is_mastered = EXCLUDED.is_mastered, needs_practice = EXCLUDED.needs_practice, updated_at = NOW()`,
		state.StudentID, state.SkillID, state.Subject, state.PKnow, state.Attempts,
		state.CorrectCount, state.IsMastered, state.NeedsPractice,
	)
	if err != nil {
		return fmt.Errorf("upsert skill state %s: %w", state.SkillID, err)
	}
	return nil
}

func (s *Store) ListSkillStates(studentID int64, subject models.Subject) (map[string]models.SkillState, error) {
	rows, err := s.db.Query(
		`SELECT student_id, skill_id, subject, p_know, attempts, correct_count, is_mastered, needs_practice, updated_at
		 FROM skill_states WHERE student_id = $1 AND subject = $2`,
		studentID, subject,
	)
	if err != nil {
		return nil, fmt.Errorf("list skill states for %s: %w", subject, err)
	}
	defer rows.Close()

	states := map[string]models.SkillState{}
	for rows.Next() {
		var st models.SkillState
		if err := rows.Scan(&st.StudentID, &st.SkillID, &st.Subject, &st.PKnow, &st.Attempts,
			&st.CorrectCount, &st.IsMastered, &st.NeedsPractice, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan skill state: %w", err)
		}
		states[st.SkillID] = st
	}
	return states, rows.Err()
}

func (s *Store) ListAllSkillStates(studentID int64) ([]models.SkillState, error) {
	rows, err := s.db.Query(
		`SELECT student_id, skill_id, subject, p_know, attempts, correct_count, is_mastered, needs_practice, updated_at
		 FROM skill_states WHERE student_id = $1 ORDER BY subject, skill_id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list skill states: %w", err)
	}
	defer rows.Close()

	var states []models.SkillState
	for rows.Next() {
		var st models.SkillState
		if err := rows.Scan(&st.StudentID, &st.SkillID, &st.Subject, &st.PKnow, &st.Attempts,
			&st.CorrectCount, &st.IsMastered, &st.NeedsPractice, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan skill state: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// ── Interest profiles ──────────────────────────────────────

func (s *Store) UpsertInterestProfile(p models.InterestProfile) error {
	history, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("marshal interest history: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO interest_profiles (student_id, subject, interest_score, time_spent_seconds,
		   questions_attempted, questions_completed, questions_correct, voluntary_attempts,
		   completion_rate, avg_time_per_question, history, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		 ON CONFLICT (student_id, subject) DO UPDATE SET
		   interest_score = EXCLUDED.interest_score, time_spent_seconds = EXCLUDED.time_spent_seconds,
		   questions_attempted = EXCLUDED.questions_attempted, questions_completed = EXCLUDED.questions_completed,
		   questions_correct = EXCLUDED.questions_correct, voluntary_attempts = EXCLUDED.voluntary_attempts,
		   completion_rate = EXCLUDED.completion_rate, avg_time_per_question = EXCLUDED.avg_time_per_question,
		   history = EXCLUDED.history, updated_at = NOW()`,
		p.StudentID, p.Subject, p.InterestScore, p.TimeSpentSeconds,
		p.QuestionsAttempted, p.QuestionsCompleted, p.QuestionsCorrect, p.VoluntaryAttempts,
		p.CompletionRate, p.AvgTimePerQuestion, history,
	)
	if err != nil {
		return fmt.Errorf("upsert interest profile %s: %w", p.Subject, err)
	}
	return nil
}

func (s *Store) GetInterestProfile(studentID int64, subject models.Subject) (models.InterestProfile, bool, error) {
	var p models.InterestProfile
	var history []byte
	err := s.db.QueryRow(
		`SELECT student_id, subject, interest_score, time_spent_seconds, questions_attempted,
		        questions_completed, questions_correct, voluntary_attempts, completion_rate,
		        avg_time_per_question, history, updated_at
		 FROM interest_profiles WHERE student_id = $1 AND subject = $2`,
		studentID, subject,
	).Scan(&p.StudentID, &p.Subject, &p.InterestScore, &p.TimeSpentSeconds, &p.QuestionsAttempted,
		&p.QuestionsCompleted, &p.QuestionsCorrect, &p.VoluntaryAttempts, &p.CompletionRate,
		&p.AvgTimePerQuestion, &history, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.InterestProfile{}, false, nil
	}
	if err != nil {
		return models.InterestProfile{}, false, fmt.Errorf("get interest profile %s: %w", subject, err)
	}
	if err := json.Unmarshal(history, &p.History); err != nil {
		return models.InterestProfile{}, false, fmt.Errorf("unmarshal interest history: %w", err)
	}
	return p, true, nil
}

func (s *Store) ListInterestProfiles(studentID int64) ([]models.InterestProfile, error) {
	rows, err := s.db.Query(
		`SELECT student_id, subject, interest_score, time_spent_seconds, questions_attempted,
		        questions_completed, questions_correct, voluntary_attempts, completion_rate,
		        avg_time_per_question, history, updated_at
		 FROM interest_profiles WHERE student_id = $1 ORDER BY interest_score DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list interest profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.InterestProfile
	for rows.Next() {
		var p models.InterestProfile
		var history []byte
		if err := rows.Scan(&p.StudentID, &p.Subject, &p.InterestScore, &p.TimeSpentSeconds,
			&p.QuestionsAttempted, &p.QuestionsCompleted, &p.QuestionsCorrect, &p.VoluntaryAttempts,
			&p.CompletionRate, &p.AvgTimePerQuestion, &history, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan interest profile: %w", err)
		}
		if err := json.Unmarshal(history, &p.History); err != nil {
			return nil, fmt.Errorf("unmarshal interest history: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// ── Users ──────────────────────────────────────────────────

func (s *Store) GetGradeLevel(studentID int64) (int, error) {
	var grade int
	err := s.db.QueryRow(`SELECT grade_level FROM users WHERE id = $1`, studentID).Scan(&grade)
	if err != nil {
		return 0, fmt.Errorf("get grade level: %w", err)
	}
	return grade, nil
}
