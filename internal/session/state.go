package session

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise/backend/internal/models"
)

// Phase is the session lifecycle position. Transitions only move
// forward through Selecting/AwaitingResponse/Updating loops until
// Terminated.
type Phase string

const (
	PhaseInitializing     Phase = "initializing"
	PhaseSelecting        Phase = "selecting"
	PhaseAwaitingResponse Phase = "awaiting_response"
	PhaseUpdating         Phase = "updating"
	PhaseTerminated       Phase = "terminated"
)

type Strategy string

const (
	StrategyMaxInformation  Strategy = "max_information"
	StrategyDifficultyMatch Strategy = "difficulty_match"
	StrategyRandom          Strategy = "random"
)

// Config fixes the stopping rule and selection behavior for one session.
type Config struct {
	MinQuestions        int
	MaxQuestions        int
	ConfidenceTarget    float64 // percent, stop at or above
	StandardErrorTarget float64 // binomial se, stop at or below
	Strategy            Strategy
	Discovery           bool // randomize the opening item per subject
}

func DefaultConfig() Config {
	return Config{
		MinQuestions:        5,
		MaxQuestions:        20,
		ConfidenceTarget:    75,
		StandardErrorTarget: 0.20,
		Strategy:            StrategyMaxInformation,
	}
}

// SubjectState tracks per-subject progress inside a session.
type SubjectState struct {
	Subject       models.Subject
	Answered      int
	Correct       int
	Confidence    float64
	StandardError float64
	Complete      bool
}

// State is an immutable session snapshot. Every transition returns a
// new value; callers must use the returned state and discard the old
// one.
type State struct {
	ID          string
	StudentID   int64
	Phase       Phase
	Config      Config
	Subjects    []SubjectState
	UsedItemIDs map[int64]bool
	PendingItem int64 // item id awaiting a response, 0 when none
	StartedAt   time.Time
}

// New validates the configuration and opens a session in the Selecting
// phase. Invalid configurations fail here rather than mid-session.
func New(studentID int64, subjects []models.Subject, cfg Config) (State, error) {
	if len(subjects) == 0 {
		return State{}, fmt.Errorf("session: no subjects requested")
	}
	if cfg.MinQuestions < 0 || cfg.MaxQuestions < 0 {
		return State{}, fmt.Errorf("session: negative question counts (min=%d, max=%d)", cfg.MinQuestions, cfg.MaxQuestions)
	}
	if cfg.MinQuestions > cfg.MaxQuestions {
		return State{}, fmt.Errorf("session: min questions %d exceeds max %d", cfg.MinQuestions, cfg.MaxQuestions)
	}
	if cfg.ConfidenceTarget <= 0 {
		cfg.ConfidenceTarget = DefaultConfig().ConfidenceTarget
	}
	if cfg.StandardErrorTarget <= 0 {
		cfg.StandardErrorTarget = DefaultConfig().StandardErrorTarget
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyMaxInformation
	}
	switch cfg.Strategy {
	case StrategyMaxInformation, StrategyDifficultyMatch, StrategyRandom:
	default:
		return State{}, fmt.Errorf("session: unknown strategy %q", cfg.Strategy)
	}

	states := make([]SubjectState, 0, len(subjects))
	for _, s := range subjects {
		if !models.ValidSubjects[s] {
			return State{}, fmt.Errorf("session: unknown subject %q", s)
		}
		states = append(states, SubjectState{Subject: s})
	}

	return State{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		Phase:       PhaseSelecting,
		Config:      cfg,
		Subjects:    states,
		UsedItemIDs: map[int64]bool{},
		StartedAt:   time.Now().UTC(),
	}, nil
}

// NextSubject picks the incomplete subject with the fewest answered
// questions, which yields round-robin interleaving across subjects.
// Returns false when every subject is complete.
func (s State) NextSubject() (models.Subject, bool) {
	best := -1
	for i, sub := range s.Subjects {
		if sub.Complete {
			continue
		}
		if best == -1 || sub.Answered < s.Subjects[best].Answered {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return s.Subjects[best].Subject, true
}

// MarkServed records the item as used and moves to AwaitingResponse.
// An item id can never be served twice within the session.
func (s State) MarkServed(itemID int64) State {
	next := s.clone()
	next.UsedItemIDs[itemID] = true
	next.PendingItem = itemID
	next.Phase = PhaseAwaitingResponse
	return next
}

// MarkExhausted completes a subject whose eligible item pool ran dry,
// regardless of the stopping rule. Keeps the session progressing
// instead of deadlocking on an unreachable confidence target.
func (s State) MarkExhausted(subject models.Subject) State {
	next := s.clone()
	for i := range next.Subjects {
		if next.Subjects[i].Subject == subject {
			next.Subjects[i].Complete = true
		}
	}
	next.finishIfDone()
	return next
}

// RecordResponse folds one answer into the subject's tally and applies
// the stopping rule. Phase returns to Selecting unless every subject
// has completed.
func (s State) RecordResponse(subject models.Subject, correct bool) State {
	next := s.clone()
	next.PendingItem = 0
	next.Phase = PhaseUpdating

	for i := range next.Subjects {
		sub := &next.Subjects[i]
		if sub.Subject != subject {
			continue
		}
		sub.Answered++
		if correct {
			sub.Correct++
		}
		sub.Confidence, sub.StandardError = proportionConfidence(sub.Correct, sub.Answered)
		sub.Complete = shouldStop(*sub, next.Config)
	}

	next.Phase = PhaseSelecting
	next.finishIfDone()
	return next
}

// proportionConfidence derives a stopping signal from the binomial
// standard error of the observed accuracy:
//
//	se = sqrt(p(1-p)/n), confidence = 100(1 - 2se)
func proportionConfidence(correct, answered int) (confidence, se float64) {
	if answered == 0 {
		return 0, 1
	}
	p := float64(correct) / float64(answered)
	se = math.Sqrt(p * (1 - p) / float64(answered))
	confidence = 100 * (1 - 2*se)
	if confidence < 0 {
		confidence = 0
	}
	return confidence, se
}

func shouldStop(sub SubjectState, cfg Config) bool {
	if sub.Answered >= cfg.MaxQuestions {
		return true
	}
	if sub.Answered < cfg.MinQuestions {
		return false
	}
	return sub.Confidence >= cfg.ConfidenceTarget || sub.StandardError <= cfg.StandardErrorTarget
}

func (s *State) finishIfDone() {
	for _, sub := range s.Subjects {
		if !sub.Complete {
			return
		}
	}
	s.Phase = PhaseTerminated
}

// Complete reports whether the session has terminated.
func (s State) Complete() bool {
	return s.Phase == PhaseTerminated
}

// Progress exposes per-subject tallies in API form.
func (s State) Progress() []models.SubjectProgress {
	out := make([]models.SubjectProgress, 0, len(s.Subjects))
	for _, sub := range s.Subjects {
		out = append(out, models.SubjectProgress{
			Subject:  sub.Subject,
			Answered: sub.Answered,
			Correct:  sub.Correct,
			Complete: sub.Complete,
		})
	}
	return out
}

// clone copies the state deeply enough that mutating the copy never
// touches the original.
func (s State) clone() State {
	next := s
	next.Subjects = make([]SubjectState, len(s.Subjects))
	copy(next.Subjects, s.Subjects)
	next.UsedItemIDs = make(map[int64]bool, len(s.UsedItemIDs))
	for id := range s.UsedItemIDs {
		next.UsedItemIDs[id] = true
	}
	return next
}
