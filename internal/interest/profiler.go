package interest

import (
	"math"
	"time"

	"github.com/pathwise/backend/internal/models"
)

// Config carries the interest-scoring tunables.
type Config struct {
	OptimalSecondsPerItem float64
	AttemptTarget         int // attempts per subject considered full engagement
	VoluntarySaturation   int // voluntary attempts at which the signal maxes out
	SmoothingRetention    float64
	HistoryWindow         int // bounded interaction window kept on the profile
	TrendWindow           int // most recent interactions used for trend analysis
}

func DefaultConfig() Config {
	return Config{
		OptimalSecondsPerItem: 60,
		AttemptTarget:         10,
		VoluntarySaturation:   3,
		SmoothingRetention:    0.85,
		HistoryWindow:         20,
		TrendWindow:           5,
	}
}

// Score component weights. They sum to 1 so the raw score lands on the
// 0–100 scale without renormalization.
const (
	weightAttemptRate = 0.30
	weightCompletion  = 0.25
	weightTimeEngage  = 0.20
	weightVoluntary   = 0.15
	weightSuccess     = 0.10
)

// NewProfile seeds an empty profile for one (student, subject).
func NewProfile(studentID int64, subject models.Subject) models.InterestProfile {
	return models.InterestProfile{
		StudentID: studentID,
		Subject:   subject,
		UpdatedAt: time.Now().UTC(),
	}
}

// Update folds one interaction into the profile's running metrics and
// recomputes the base interest score. Returns a new profile value.
func Update(profile models.InterestProfile, event models.Interaction, cfg Config) models.InterestProfile {
	profile.QuestionsAttempted++
	if event.Completed {
		profile.QuestionsCompleted++
	}
	if event.Correct {
		profile.QuestionsCorrect++
	}
	if event.Voluntary {
		profile.VoluntaryAttempts++
	}
	profile.TimeSpentSeconds += math.Max(event.TimeTakenSeconds, 0)

	if profile.QuestionsAttempted > 0 {
		profile.CompletionRate = clamp100(100 * float64(profile.QuestionsCompleted) / float64(profile.QuestionsAttempted))
		profile.AvgTimePerQuestion = profile.TimeSpentSeconds / float64(profile.QuestionsAttempted)
	}

	history := append(profile.History, event)
	if cfg.HistoryWindow > 0 && len(history) > cfg.HistoryWindow {
		history = history[len(history)-cfg.HistoryWindow:]
	}
	profile.History = history

	profile.InterestScore = Score(profile, cfg)
	profile.UpdatedAt = time.Now().UTC()
	return profile
}

// Score computes the weighted interest score from the profile's
// accumulated metrics. Always in [0, 100], even on empty or adversarial
// input.
func Score(profile models.InterestProfile, cfg Config) float64 {
	if cfg.AttemptTarget <= 0 {
		cfg.AttemptTarget = DefaultConfig().AttemptTarget
	}
	if cfg.VoluntarySaturation <= 0 {
		cfg.VoluntarySaturation = DefaultConfig().VoluntarySaturation
	}

	attemptRate := math.Min(1, float64(profile.QuestionsAttempted)/float64(cfg.AttemptTarget))
	completion := clamp100(profile.CompletionRate) / 100
	timeEngage := timeEngagement(profile.AvgTimePerQuestion, cfg.OptimalSecondsPerItem)
	voluntary := math.Min(1, float64(profile.VoluntaryAttempts)/float64(cfg.VoluntarySaturation))

	success := 0.0
	if profile.QuestionsAttempted > 0 {
		success = float64(profile.QuestionsCorrect) / float64(profile.QuestionsAttempted)
	}

	score := 100 * (weightAttemptRate*attemptRate +
		weightCompletion*completion +
		weightTimeEngage*timeEngage +
		weightVoluntary*voluntary +
		weightSuccess*success)
	return clamp100(score)
}

// timeEngagement peaks at the optimal per-item time and decays with the
// absolute deviation from it.
func timeEngagement(avgSeconds, optimalSeconds float64) float64 {
	if optimalSeconds <= 0 {
		optimalSeconds = DefaultConfig().OptimalSecondsPerItem
	}
	if avgSeconds <= 0 {
		return 0
	}
	deviation := math.Abs(avgSeconds-optimalSeconds) / optimalSeconds
	return math.Max(0, 1-deviation)
}

// SmoothSessionUpdate blends a finished session into the cross-session
// score instead of overwriting it:
//
//	newScore = round(retention·prev + (1-retention)·clamp(prev+delta))
//
// where delta aggregates the time-category reward, an accuracy nudge,
// and a session-engagement nudge.
func SmoothSessionUpdate(profile models.InterestProfile, cfg Config) models.InterestProfile {
	retention := cfg.SmoothingRetention
	if retention <= 0 || retention >= 1 {
		retention = DefaultConfig().SmoothingRetention
	}

	accuracy := 0.0
	if profile.QuestionsAttempted > 0 {
		accuracy = 100 * float64(profile.QuestionsCorrect) / float64(profile.QuestionsAttempted)
	}

	category := ClassifyTime(profile.AvgTimePerQuestion, cfg.OptimalSecondsPerItem)
	delta := TimeReward(category, accuracy)
	delta += (accuracy - 60) * 0.08
	delta += engagementNudge(profile, cfg)

	prev := clamp100(profile.InterestScore)
	blended := retention*prev + (1-retention)*clamp100(prev+delta)
	profile.InterestScore = math.Round(clamp100(blended))
	profile.UpdatedAt = time.Now().UTC()
	return profile
}

// engagementNudge rewards voluntary work and finished sessions.
func engagementNudge(profile models.InterestProfile, cfg Config) float64 {
	nudge := 0.0
	if profile.VoluntaryAttempts >= cfg.VoluntarySaturation {
		nudge += 3
	} else if profile.VoluntaryAttempts > 0 {
		nudge += 1
	}
	if profile.CompletionRate >= 90 {
		nudge += 2
	} else if profile.CompletionRate < 40 {
		nudge -= 2
	}
	return nudge
}

// ClassifyLevel buckets the score at 20-point boundaries.
func ClassifyLevel(score float64) models.InterestLevel {
	switch {
	case score < 20:
		return models.InterestVeryLow
	case score < 40:
		return models.InterestLow
	case score < 60:
		return models.InterestMedium
	case score < 80:
		return models.InterestHigh
	default:
		return models.InterestVeryHigh
	}
}

// DetectPattern classifies the engagement trend over the most recent
// interactions by counting pairwise response-time deltas, and scores
// consistency from the coefficient of variation of response times.
func DetectPattern(profile models.InterestProfile, cfg Config) models.EngagementPattern {
	window := cfg.TrendWindow
	if window <= 1 {
		window = DefaultConfig().TrendWindow
	}

	history := profile.History
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) < 2 {
		return models.EngagementPattern{Trend: models.TrendStable, Consistency: 100, SampleSize: len(history)}
	}

	faster, slower := 0, 0
	for i := 1; i < len(history); i++ {
		d := history[i].TimeTakenSeconds - history[i-1].TimeTakenSeconds
		if d < 0 {
			faster++ // speeding up reads as growing engagement
		} else if d > 0 {
			slower++
		}
	}

	trend := models.TrendStable
	if faster > slower {
		trend = models.TrendIncreasing
	} else if slower > faster {
		trend = models.TrendDecreasing
	}

	return models.EngagementPattern{
		Trend:       trend,
		Consistency: consistencyScore(history),
		SampleSize:  len(history),
	}
}

func consistencyScore(history []models.Interaction) float64 {
	mean := 0.0
	for _, h := range history {
		mean += h.TimeTakenSeconds
	}
	mean /= float64(len(history))
	if mean <= 0 {
		return 0
	}

	variance := 0.0
	for _, h := range history {
		d := h.TimeTakenSeconds - mean
		variance += d * d
	}
	variance /= float64(len(history))

	cv := math.Sqrt(variance) / math.Max(mean, 1e-6)
	return clamp100(100 * (1 - cv))
}

func clamp100(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
