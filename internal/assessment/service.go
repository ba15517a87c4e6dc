package assessment

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pathwise/backend/internal/generator"
	"github.com/pathwise/backend/internal/interest"
	"github.com/pathwise/backend/internal/irt"
	"github.com/pathwise/backend/internal/mastery"
	"github.com/pathwise/backend/internal/models"
	"github.com/pathwise/backend/internal/recommend"
	"github.com/pathwise/backend/internal/session"
)

// adaptivePriorWindow is how many recent responses feed the prior
// adjustment before Bayesian estimation.
const adaptivePriorWindow = 10

// Storage is the persistence surface the service depends on. *Store is
// the postgres implementation.
type Storage interface {
	InsertItem(item models.Item, source, quarantineReason, modelUsed string) (int64, error)
	GetItem(id int64) (models.Item, error)
	ListActiveItems(subject models.Subject) ([]models.Item, error)
	RecordItemServed(itemID int64, correct bool) error

	InsertResponseEvent(ev models.ResponseEvent) (bool, error)
	ListResponsesForEstimation(studentID int64, subject models.Subject) ([]irt.Response, error)
	CountRecentResponses(studentID int64, subject models.Subject, limit int) (answered, correct int, err error)

	SaveSession(state session.State) error
	LoadSession(sessionID string, studentID int64) (session.State, error)

	UpsertSkillState(state models.SkillState) error
	ListSkillStates(studentID int64, subject models.Subject) (map[string]models.SkillState, error)
	ListAllSkillStates(studentID int64) ([]models.SkillState, error)

	UpsertInterestProfile(p models.InterestProfile) error
	GetInterestProfile(studentID int64, subject models.Subject) (models.InterestProfile, bool, error)
	ListInterestProfiles(studentID int64) ([]models.InterestProfile, error)

	GetGradeLevel(studentID int64) (int, error)
}

type Service struct {
	store       Storage
	selector    *session.Selector
	estCfg      irt.EstimatorConfig
	bktParams   mastery.Params
	interestCfg interest.Config
	recCfg      recommend.Config
	gen         *generator.Generator

	defaultMinQuestions int
	defaultMaxQuestions int
}

func NewService(store Storage) *Service {
	s := &Service{
		store:               store,
		selector:            session.NewSelector(time.Now().UnixNano()),
		estCfg:              irt.DefaultEstimatorConfig(),
		bktParams:           mastery.DefaultParams(),
		interestCfg:         interest.DefaultConfig(),
		recCfg:              recommend.DefaultEngineConfig(),
		defaultMinQuestions: intEnv("SESSION_MIN_QUESTIONS", 5),
		defaultMaxQuestions: intEnv("SESSION_MAX_QUESTIONS", 20),
	}
	log.Printf("[assessment] session defaults: min=%d max=%d", s.defaultMinQuestions, s.defaultMaxQuestions)
	return s
}

// ── Sessions ───────────────────────────────────────────────

func (s *Service) StartSession(studentID int64, req models.StartSessionRequest) (models.StartSessionResponse, error) {
	cfg := session.DefaultConfig()
	cfg.MinQuestions = s.defaultMinQuestions
	cfg.MaxQuestions = s.defaultMaxQuestions
	if req.MinQuestions != 0 {
		cfg.MinQuestions = req.MinQuestions
	}
	if req.MaxQuestions != 0 {
		cfg.MaxQuestions = req.MaxQuestions
	}
	if req.Strategy != "" {
		cfg.Strategy = session.Strategy(req.Strategy)
	}
	cfg.Discovery = req.Discovery
	if cfg.Discovery && req.Strategy == "" {
		cfg.Strategy = session.StrategyRandom
	}

	state, err := session.New(studentID, req.Subjects, cfg)
	if err != nil {
		return models.StartSessionResponse{}, err
	}
	if err := s.store.SaveSession(state); err != nil {
		return models.StartSessionResponse{}, err
	}

	return models.StartSessionResponse{SessionID: state.ID, Subjects: req.Subjects}, nil
}

// NextItem advances the session to its next served item. Subjects with
// an exhausted pool are completed in place so a thin item bank can
// never wedge the session.
func (s *Service) NextItem(studentID int64, sessionID string) (models.NextItemResponse, error) {
	state, err := s.store.LoadSession(sessionID, studentID)
	if err != nil {
		return models.NextItemResponse{}, err
	}
	wasComplete := state.Complete()

	for !state.Complete() {
		subject, ok := state.NextSubject()
		if !ok {
			break
		}

		ability := s.estimateAbility(studentID, subject)
		pool, err := s.store.ListActiveItems(subject)
		if err != nil {
			return models.NextItemResponse{}, err
		}

		item, ok := s.selector.Select(state, subject, pool, ability.Theta)
		if !ok {
			log.Printf("[assessment] WARN: item pool exhausted for %s, completing subject", subject)
			state = state.MarkExhausted(subject)
			continue
		}

		state = state.MarkServed(item.ID)
		if err := s.store.SaveSession(state); err != nil {
			return models.NextItemResponse{}, err
		}

		served := item.ToServedItem()
		return models.NextItemResponse{Item: &served, Progress: state.Progress()}, nil
	}

	// A session can finish here too, through the exhausted-pool path.
	if !wasComplete && state.Complete() {
		s.smoothSessionInterests(studentID, state)
	}
	if err := s.store.SaveSession(state); err != nil {
		return models.NextItemResponse{}, err
	}
	return models.NextItemResponse{SessionComplete: true, Progress: state.Progress()}, nil
}

// SubmitResponse grades the pending item and fans the outcome out to
// the ability, mastery, and interest models.
func (s *Service) SubmitResponse(studentID int64, sessionID string, req models.SubmitResponseRequest) (models.SubmitResponseResponse, error) {
	state, err := s.store.LoadSession(sessionID, studentID)
	if err != nil {
		return models.SubmitResponseResponse{}, err
	}
	if state.PendingItem == 0 {
		return models.SubmitResponseResponse{}, fmt.Errorf("session %s has no pending item", sessionID)
	}
	if state.PendingItem != req.ItemID {
		return models.SubmitResponseResponse{}, fmt.Errorf("item %d is not the pending item for session %s", req.ItemID, sessionID)
	}

	item, err := s.store.GetItem(req.ItemID)
	if err != nil {
		return models.SubmitResponseResponse{}, err
	}
	correct := item.CorrectChoice == req.SelectedChoiceID

	event := models.ResponseEvent{
		StudentID:        studentID,
		SessionID:        &sessionID,
		ItemID:           item.ID,
		Subject:          item.Subject,
		Correct:          correct,
		TimeTakenSeconds: req.TimeTakenSeconds,
		Voluntary:        req.Voluntary,
	}
	// inserted = false means a retry after a partial failure: the event
	// and the mastery/interest fan-out already landed, only the session
	// state transition is still owed.
	inserted, err := s.store.InsertResponseEvent(event)
	if err != nil {
		return models.SubmitResponseResponse{}, err
	}
	if inserted {
		if err := s.store.RecordItemServed(item.ID, correct); err != nil {
			log.Printf("[assessment] WARN: item stats update failed: %v", err)
		}
		if err := s.updateSkills(studentID, item, correct); err != nil {
			return models.SubmitResponseResponse{}, err
		}
		if err := s.updateInterest(studentID, item.Subject, req, correct); err != nil {
			return models.SubmitResponseResponse{}, err
		}
	} else {
		log.Printf("[assessment] WARN: duplicate response for session %s item %d, replaying state transition only", sessionID, item.ID)
	}

	state = state.RecordResponse(item.Subject, correct)
	if state.Complete() {
		s.smoothSessionInterests(studentID, state)
	}
	if err := s.store.SaveSession(state); err != nil {
		return models.SubmitResponseResponse{}, err
	}

	ability := s.abilitySummary(studentID, item.Subject)

	return models.SubmitResponseResponse{
		Correct:         correct,
		CorrectChoiceID: item.CorrectChoice,
		Explanation:     item.Explanation,
		Ability:         &ability,
		SessionComplete: state.Complete(),
	}, nil
}

func (s *Service) Results(studentID int64, sessionID string) (models.SessionResults, error) {
	state, err := s.store.LoadSession(sessionID, studentID)
	if err != nil {
		return models.SessionResults{}, err
	}

	results := models.SessionResults{SessionID: sessionID}
	for _, sub := range state.Subjects {
		results.Abilities = append(results.Abilities, s.abilitySummary(studentID, sub.Subject))

		profile, found, err := s.store.GetInterestProfile(studentID, sub.Subject)
		if err != nil {
			return models.SessionResults{}, err
		}
		if found {
			results.Interests = append(results.Interests, s.interestSummary(profile))
		}

		skills, err := s.store.ListSkillStates(studentID, sub.Subject)
		if err != nil {
			return models.SessionResults{}, err
		}
		for _, st := range skills {
			results.Skills = append(results.Skills, st)
		}
	}
	return results, nil
}

// ── Derived signals ────────────────────────────────────────

// estimateAbility rebuilds theta from the persisted response history.
// The grade prior anchors cold starts; the adaptive adjustment follows
// recent streaks.
func (s *Service) estimateAbility(studentID int64, subject models.Subject) models.AbilityState {
	prior := irt.DefaultPrior()
	if grade, err := s.store.GetGradeLevel(studentID); err == nil {
		prior = irt.GradePrior(grade)
	}

	responses, err := s.store.ListResponsesForEstimation(studentID, subject)
	if err != nil {
		log.Printf("[assessment] WARN: response history load failed for %s: %v", subject, err)
		responses = nil
	}

	prior = irt.AdaptivePrior(prior, responses, adaptivePriorWindow)
	return irt.EstimateEAP(responses, prior, s.estCfg)
}

func (s *Service) abilitySummary(studentID int64, subject models.Subject) models.AbilitySummary {
	state := s.estimateAbility(studentID, subject)
	return models.AbilitySummary{
		Subject:       subject,
		Theta:         state.Theta,
		Percentage:    irt.ThetaToPercentage(state.Theta),
		StandardError: state.StandardError,
		Confidence:    state.Confidence,
		Responses:     state.Responses,
	}
}

func (s *Service) interestSummary(p models.InterestProfile) models.InterestSummary {
	return models.InterestSummary{
		Subject:       p.Subject,
		InterestScore: p.InterestScore,
		Level:         interest.ClassifyLevel(p.InterestScore),
		Pattern:       interest.DetectPattern(p, s.interestCfg),
		Attempted:     p.QuestionsAttempted,
		Voluntary:     p.VoluntaryAttempts,
	}
}

func (s *Service) updateSkills(studentID int64, item models.Item, correct bool) error {
	states, err := s.store.ListSkillStates(studentID, item.Subject)
	if err != nil {
		return err
	}
	for _, skillID := range item.Skills {
		st, ok := states[skillID]
		if !ok {
			st = mastery.NewSkillState(studentID, skillID, item.Subject, s.bktParams)
		}
		st = mastery.Update(st, correct, s.bktParams)
		if err := s.store.UpsertSkillState(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) updateInterest(studentID int64, subject models.Subject, req models.SubmitResponseRequest, correct bool) error {
	profile, found, err := s.store.GetInterestProfile(studentID, subject)
	if err != nil {
		return err
	}
	if !found {
		profile = interest.NewProfile(studentID, subject)
	}

	profile = interest.Update(profile, models.Interaction{
		TimeTakenSeconds: req.TimeTakenSeconds,
		Correct:          correct,
		Voluntary:        req.Voluntary,
		Completed:        true,
		OccurredAt:       time.Now().UTC(),
	}, s.interestCfg)

	return s.store.UpsertInterestProfile(profile)
}

// smoothSessionInterests folds the finished session into each subject's
// long-lived interest score.
func (s *Service) smoothSessionInterests(studentID int64, state session.State) {
	for _, sub := range state.Subjects {
		profile, found, err := s.store.GetInterestProfile(studentID, sub.Subject)
		if err != nil || !found {
			continue
		}
		profile = interest.SmoothSessionUpdate(profile, s.interestCfg)
		if err := s.store.UpsertInterestProfile(profile); err != nil {
			log.Printf("[assessment] WARN: interest smoothing failed for %s: %v", sub.Subject, err)
		}
	}
}

// ── Recommendations ────────────────────────────────────────

func (s *Service) Recommendations(studentID int64, req models.RecommendationRequest) (models.RecommendationResponse, error) {
	var inputs []recommend.SubjectInput

	for _, subject := range models.AllSubjects {
		in := recommend.SubjectInput{Subject: subject}

		responses, err := s.store.ListResponsesForEstimation(studentID, subject)
		if err != nil {
			return models.RecommendationResponse{}, err
		}
		in.Attempts = len(responses)

		if len(responses) > 0 {
			state := s.estimateAbility(studentID, subject)
			in.Ability = recommend.Present(irt.ThetaToPercentage(state.Theta))

			correct := 0
			for _, r := range responses {
				if r.Correct {
					correct++
				}
			}
			in.Accuracy = 100 * float64(correct) / float64(len(responses))
		}

		profile, found, err := s.store.GetInterestProfile(studentID, subject)
		if err != nil {
			return models.RecommendationResponse{}, err
		}
		if found && profile.QuestionsAttempted > 0 {
			in.Interest = recommend.Present(profile.InterestScore)
			in.AvgTimeSeconds = profile.AvgTimePerQuestion
		}

		skills, err := s.store.ListSkillStates(studentID, subject)
		if err != nil {
			return models.RecommendationResponse{}, err
		}
		if len(skills) > 0 {
			in.Potential = recommend.Present(s.potentialScore(studentID, subject, skills))
		}

		inputs = append(inputs, in)
	}

	recs := recommend.Rank(inputs, req, s.recCfg)
	return models.RecommendationResponse{Recommendations: recs, Total: len(recs)}, nil
}

// potentialScore blends mastery headroom with recent accuracy: a
// student improving fast in a subject they haven't mastered has the
// most room to grow. When no recent window is available, the observed
// per-skill accuracy stands in for it.
func (s *Service) potentialScore(studentID int64, subject models.Subject, skills map[string]models.SkillState) float64 {
	sum := 0.0
	for _, st := range skills {
		sum += st.PKnow
	}
	avgPKnow := sum / float64(len(skills))
	headroom := 1 - avgPKnow

	recentAcc := observedSkillAccuracy(skills)
	if answered, correct, err := s.store.CountRecentResponses(studentID, subject, 10); err == nil && answered > 0 {
		recentAcc = float64(correct) / float64(answered)
	}

	return math.Round(100 * (0.5*headroom + 0.5*recentAcc))
}

// observedSkillAccuracy is the attempts-weighted accuracy across the
// subject's skill states, neutral when nothing has been attempted.
func observedSkillAccuracy(skills map[string]models.SkillState) float64 {
	attempts := 0
	weighted := 0.0
	for _, st := range skills {
		attempts += st.Attempts
		weighted += float64(st.Attempts) * st.Accuracy()
	}
	if attempts == 0 {
		return 0.5
	}
	return weighted / float64(attempts)
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
