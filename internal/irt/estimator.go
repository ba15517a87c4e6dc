package irt

import (
	"math"

	"github.com/pathwise/backend/internal/models"
)

// Response pairs one scored answer with the IRT parameters of the item
// it was given on. The estimator needs nothing else from the event log.
type Response struct {
	Correct        bool
	Difficulty     float64
	Discrimination float64
	Guessing       float64
}

// EstimatorConfig carries the numeric tunables of both estimators.
// More quadrature points buy accuracy roughly linearly in cost; 41 points
// over [-3, 3] keeps the posterior mean within ~1e-4 of a 201-point grid
// for realistic response sets.
type EstimatorConfig struct {
	QuadraturePoints    int
	NewtonMaxIterations int
	NewtonTolerance     float64
	BisectionIterations int
}

func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		QuadraturePoints:    41,
		NewtonMaxIterations: 20,
		NewtonTolerance:     1e-4,
		BisectionIterations: 40,
	}
}

// Prior is a normal prior over theta.
type Prior struct {
	Mean float64
	SD   float64
}

func DefaultPrior() Prior {
	return Prior{Mean: 0, SD: 1.0}
}

// gradeThetas maps grade level (1–12) to an expected theta. Grades below
// the table floor clamp to grade 1, above to grade 12.
var gradeThetas = [12]float64{
	-2.25, -1.9, -1.55, -1.2, -0.85, -0.5,
	-0.15, 0.2, 0.55, 0.9, 1.2, 1.5,
}

// GradePrior returns the Bayesian prior for a student at the given grade
// level, with the fixed sd=1.0 used before any adaptive adjustment.
func GradePrior(grade int) Prior {
	if grade < 1 {
		grade = 1
	}
	if grade > 12 {
		grade = 12
	}
	return Prior{Mean: gradeThetas[grade-1], SD: 1.0}
}

// AdaptivePrior adjusts a base prior from recent evidence: a hot recent
// window shifts the mean up, a cold one down, and the sd tightens as
// responses accumulate (floor 0.5).
func AdaptivePrior(base Prior, responses []Response, recentWindow int) Prior {
	adjusted := base

	n := len(responses)
	if n == 0 {
		return adjusted
	}

	recent := responses
	if recentWindow > 0 && n > recentWindow {
		recent = responses[n-recentWindow:]
	}
	correct := 0
	for _, r := range recent {
		if r.Correct {
			correct++
		}
	}
	accuracy := float64(correct) / float64(len(recent))

	if accuracy > 0.8 {
		adjusted.Mean += 0.3
	} else if accuracy < 0.4 {
		adjusted.Mean -= 0.3
	}
	adjusted.Mean = ClampTheta(adjusted.Mean)

	adjusted.SD -= math.Min(0.3, float64(n)*0.03)
	if adjusted.SD < 0.5 {
		adjusted.SD = 0.5
	}
	return adjusted
}

// ── Maximum Likelihood ──────────────────────────────────

// EstimateMLE maximizes the log-likelihood over theta by Fisher scoring,
// falling back to bisection on the score function when the information
// denominator degenerates. All-correct and all-incorrect histories have
// no interior maximum; those return the boundary estimate with low
// confidence rather than failing.
func EstimateMLE(responses []Response, cfg EstimatorConfig) models.AbilityState {
	n := len(responses)
	if n == 0 {
		return models.AbilityState{Theta: 0, StandardError: DefaultPrior().SD, Confidence: 0}
	}

	correct := 0
	for _, r := range responses {
		if r.Correct {
			correct++
		}
	}
	if correct == 0 || correct == n {
		theta := ThetaMax
		if correct == 0 {
			theta = ThetaMin
		}
		se := standardError(theta, responses)
		return models.AbilityState{
			Theta:         theta,
			StandardError: se,
			Confidence:    boundaryConfidence(n),
			Responses:     n,
		}
	}

	theta := 0.0
	converged := false
	for i := 0; i < cfg.NewtonMaxIterations; i++ {
		score := scoreFunction(theta, responses)
		info := totalInformation(theta, responses)

		step := score / math.Max(info, 1e-6)
		next := ClampTheta(theta + step)

		if math.Abs(next-theta) < cfg.NewtonTolerance {
			theta = next
			converged = true
			break
		}
		theta = next
	}

	if !converged {
		theta = bisectScore(responses, cfg.BisectionIterations)
	}

	se := standardError(theta, responses)
	return models.AbilityState{
		Theta:         theta,
		StandardError: se,
		Confidence:    clampPercent(100 * (1 - se/DefaultPrior().SD)),
		Responses:     n,
	}
}

// scoreFunction is dL/dθ for the 3PL log-likelihood.
func scoreFunction(theta float64, responses []Response) float64 {
	sum := 0.0
	for _, r := range responses {
		p := Probability(theta, r.Difficulty, r.Discrimination, r.Guessing)
		u := 0.0
		if r.Correct {
			u = 1.0
		}
		denom := math.Max(p*(1-r.Guessing), 1e-6)
		sum += r.Discrimination * (u - p) * (p - r.Guessing) / denom
	}
	return sum
}

func totalInformation(theta float64, responses []Response) float64 {
	sum := 0.0
	for _, r := range responses {
		sum += Information(theta, r.Difficulty, r.Discrimination, r.Guessing)
	}
	return sum
}

// bisectScore finds the score-function root over the theta domain. The
// score is decreasing in theta for mixed response sets, so a sign change
// brackets the maximum.
func bisectScore(responses []Response, iterations int) float64 {
	lo, hi := ThetaMin, ThetaMax
	if scoreFunction(lo, responses) < 0 {
		return lo
	}
	if scoreFunction(hi, responses) > 0 {
		return hi
	}
	for i := 0; i < iterations; i++ {
		mid := (lo + hi) / 2
		if scoreFunction(mid, responses) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func standardError(theta float64, responses []Response) float64 {
	info := totalInformation(theta, responses)
	return 1 / math.Sqrt(math.Max(info, 1e-6))
}

// boundaryConfidence reports low confidence for degenerate (all-correct
// or all-incorrect) histories, growing slowly with sample size.
func boundaryConfidence(n int) float64 {
	return clampPercent(float64(n) * 5)
}

// ── Bayesian EAP ────────────────────────────────────────

// EstimateEAP computes the posterior over theta on a quadrature grid,
// accumulating log-likelihood for numeric stability, and returns the
// posterior mean (EAP), sd, and mode (MAP). With zero responses the
// prior is returned with zero confidence.
func EstimateEAP(responses []Response, prior Prior, cfg EstimatorConfig) models.AbilityState {
	if prior.SD <= 0 {
		prior = DefaultPrior()
	}
	points := cfg.QuadraturePoints
	if points < 3 {
		points = DefaultEstimatorConfig().QuadraturePoints
	}

	if len(responses) == 0 {
		return models.AbilityState{
			Theta:         ClampTheta(prior.Mean),
			StandardError: prior.SD,
			Confidence:    0,
			Posterior: &models.PosteriorSummary{
				Mean: ClampTheta(prior.Mean),
				SD:   prior.SD,
				Mode: ClampTheta(prior.Mean),
			},
		}
	}

	step := (ThetaMax - ThetaMin) / float64(points-1)
	logPosts := make([]float64, points)
	thetas := make([]float64, points)

	maxLog := math.Inf(-1)
	for i := 0; i < points; i++ {
		theta := ThetaMin + float64(i)*step
		thetas[i] = theta

		z := (theta - prior.Mean) / prior.SD
		logPost := -0.5 * z * z
		for _, r := range responses {
			p := Probability(theta, r.Difficulty, r.Discrimination, r.Guessing)
			if r.Correct {
				logPost += math.Log(p)
			} else {
				logPost += math.Log(1 - p)
			}
		}
		logPosts[i] = logPost
		if logPost > maxLog {
			maxLog = logPost
		}
	}

	// Normalize in probability space after shifting by the max log.
	weights := make([]float64, points)
	totalWeight := 0.0
	mode := thetas[0]
	bestLog := math.Inf(-1)
	for i := 0; i < points; i++ {
		weights[i] = math.Exp(logPosts[i] - maxLog)
		totalWeight += weights[i]
		if logPosts[i] > bestLog {
			bestLog = logPosts[i]
			mode = thetas[i]
		}
	}
	totalWeight = math.Max(totalWeight, 1e-6)

	mean := 0.0
	for i := 0; i < points; i++ {
		mean += thetas[i] * weights[i]
	}
	mean /= totalWeight

	variance := 0.0
	for i := 0; i < points; i++ {
		d := thetas[i] - mean
		variance += d * d * weights[i]
	}
	variance /= totalWeight
	sd := math.Sqrt(math.Max(variance, 1e-12))

	return models.AbilityState{
		Theta:         ClampTheta(mean),
		StandardError: sd,
		Confidence:    clampPercent(100 * (1 - sd/prior.SD)),
		Responses:     len(responses),
		Posterior: &models.PosteriorSummary{
			Mean: ClampTheta(mean),
			SD:   sd,
			Mode: mode,
		},
	}
}
