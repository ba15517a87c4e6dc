package irt

import "math"

// Theta domain. Conventional 3-logit scale.
const (
	ThetaMin = -3.0
	ThetaMax = 3.0
)

// probEpsilon keeps probabilities strictly inside (c, 1) so that
// log-likelihood terms never hit ±Inf.
const probEpsilon = 1e-6

// maxExponent bounds the logistic exponent. a·(θ-b) can reach ±15 at the
// domain corners with a=2.5; anything past ±30 saturates the logistic
// well below float64 resolution anyway.
const maxExponent = 30.0

// Probability returns the 3PL probability of a correct response:
//
//	p = c + (1-c) / (1 + e^(-a(θ-b)))
//
// The result is always strictly inside (c, 1).
func Probability(theta, difficulty, discrimination, guessing float64) float64 {
	exponent := discrimination * (theta - difficulty)
	if exponent > maxExponent {
		exponent = maxExponent
	}
	if exponent < -maxExponent {
		exponent = -maxExponent
	}

	p := guessing + (1-guessing)/(1+math.Exp(-exponent))

	floor := guessing + probEpsilon
	ceil := 1 - probEpsilon
	if p < floor {
		p = floor
	}
	if p > ceil {
		p = ceil
	}
	return p
}

// Information returns the Fisher information of the 3PL model at theta:
//
//	I(θ) = a² · (q/p) · ((p-c)/(1-c))²
//
// It peaks near θ≈b for well-discriminating items and approaches zero as
// a→0 or c→1. Never negative, never NaN.
func Information(theta, difficulty, discrimination, guessing float64) float64 {
	p := Probability(theta, difficulty, discrimination, guessing)
	q := 1 - p

	denom := math.Max(1-guessing, probEpsilon)
	ratio := (p - guessing) / denom

	info := discrimination * discrimination * (q / math.Max(p, probEpsilon)) * ratio * ratio
	if math.IsNaN(info) || info < 0 {
		return 0
	}
	return info
}
