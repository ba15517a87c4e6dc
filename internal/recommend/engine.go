package recommend

import (
	"math"
	"sort"

	"github.com/pathwise/backend/internal/models"
)

// Signal is a score component that may be absent. Absence must stay
// distinguishable from a genuinely low value, so callers set Available
// explicitly instead of encoding "missing" as a magic number.
type Signal struct {
	Value     float64 // 0–100
	Available bool
}

func Present(value float64) Signal {
	return Signal{Value: value, Available: true}
}

// SubjectInput is everything the engine knows about one subject for one
// student. Attempts, Accuracy and AvgTimeSeconds feed the exploration
// bonus and the reasoning table.
type SubjectInput struct {
	Subject        models.Subject
	Ability        Signal
	Interest       Signal
	Potential      Signal
	Attempts       int
	Accuracy       float64 // percent over attempts
	AvgTimeSeconds float64
}

type Config struct {
	AbilityWeight   float64
	InterestWeight  float64
	PotentialWeight float64

	// DefaultSignal replaces missing components. Deliberately below
	// neutral so a no-data subject never outranks a genuinely mediocre
	// one on the blend alone.
	DefaultSignal float64 // 0–1 scale

	ExplorationScale float64 // UCB bonus multiplier
	TrustedAttempts  int     // attempts at which reliability saturates
	MaxPerCategory   int     // diversification cap for the top of the list
}

func DefaultEngineConfig() Config {
	return Config{
		AbilityWeight:    0.40,
		InterestWeight:   0.35,
		PotentialWeight:  0.25,
		DefaultSignal:    0.35,
		ExplorationScale: 0.15,
		TrustedAttempts:  5,
		MaxPerCategory:   2,
	}
}

// Rank scores and orders the subjects. The result is recomputed on
// every call and never persisted.
func Rank(inputs []SubjectInput, req models.RecommendationRequest, cfg Config) []models.Recommendation {
	totalAttempts := 0
	for _, in := range inputs {
		totalAttempts += in.Attempts
	}

	recs := make([]models.Recommendation, 0, len(inputs))
	for _, in := range inputs {
		if req.MinInterest != nil && in.Interest.Available && in.Interest.Value < *req.MinInterest {
			continue
		}
		recs = append(recs, score(in, totalAttempts, cfg))
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	recs = diversify(recs, cfg.MaxPerCategory)

	limit := req.Limit
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}
	recs = recs[:limit]
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

func score(in SubjectInput, totalAttempts int, cfg Config) models.Recommendation {
	ability := resolve(in.Ability, cfg)
	interest := resolve(in.Interest, cfg)
	potential := resolve(in.Potential, cfg)

	weightSum := cfg.AbilityWeight + cfg.InterestWeight + cfg.PotentialWeight
	if weightSum <= 0 {
		weightSum = 1
	}
	base := (cfg.AbilityWeight*ability + cfg.InterestWeight*interest + cfg.PotentialWeight*potential) / weightSum

	// Thin evidence shrinks the blend toward the default rather than
	// letting a couple of lucky answers dominate the ranking.
	reliability := 0.7 + 0.3*math.Min(1, float64(in.Attempts)/float64(max(cfg.TrustedAttempts, 1)))
	shrunk := cfg.DefaultSignal + (base-cfg.DefaultSignal)*reliability

	// Under-sampled subjects get a larger bonus so they keep surfacing
	// until enough evidence accumulates.
	bonus := cfg.ExplorationScale * math.Sqrt(math.Log(float64(totalAttempts)+1)/float64(in.Attempts+1))

	available := in.Ability.Available || in.Interest.Available || in.Potential.Available

	return models.Recommendation{
		Subject:        in.Subject,
		Category:       models.CategoryOf(in.Subject),
		AbilityScore:   round1(100 * ability),
		InterestScore:  round1(100 * interest),
		PotentialScore: round1(100 * potential),
		Score:          round1(100 * clampUnit(shrunk+bonus)),
		Confidence:     round1(100 * math.Min(1, float64(in.Attempts)/float64(max(cfg.TrustedAttempts, 1)))),
		Reasoning:      reasoning(in),
		DataAvailable:  available,
		Degrees:        degreesFor(in.Subject),
	}
}

// resolve maps a 0–100 signal onto the unit interval, substituting the
// below-neutral default when the signal is missing.
func resolve(s Signal, cfg Config) float64 {
	if !s.Available {
		return cfg.DefaultSignal
	}
	return clampUnit(s.Value / 100)
}

// diversify caps how many subjects of the same category may appear
// consecutively at the top. Overflow entries keep their relative order
// and move behind the first entries of other categories.
func diversify(recs []models.Recommendation, maxPerCategory int) []models.Recommendation {
	if maxPerCategory <= 0 || len(recs) <= 1 {
		return recs
	}

	kept := make([]models.Recommendation, 0, len(recs))
	deferred := make([]models.Recommendation, 0)
	counts := map[models.SubjectCategory]int{}

	for _, r := range recs {
		if counts[r.Category] >= maxPerCategory {
			deferred = append(deferred, r)
			continue
		}
		counts[r.Category]++
		kept = append(kept, r)
	}
	return append(kept, deferred...)
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
