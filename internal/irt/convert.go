package irt

// ThetaToPercentage maps theta affinely from [-3, 3] onto [0, 100].
func ThetaToPercentage(theta float64) float64 {
	p := (theta - ThetaMin) / (ThetaMax - ThetaMin) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PercentageToTheta is the inverse of ThetaToPercentage.
func PercentageToTheta(percentage float64) float64 {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	return ThetaMin + percentage/100*(ThetaMax-ThetaMin)
}

// ConfidenceInterval returns [θ-zσ, θ+zσ] clamped to the theta domain.
// Supported levels: 0.95 (z=1.96) and 0.99 (z=2.58); anything else
// falls back to 95%.
func ConfidenceInterval(theta, standardError, level float64) (lower, upper float64) {
	z := 1.96
	if level == 0.99 {
		z = 2.58
	}

	lower = theta - z*standardError
	upper = theta + z*standardError
	if lower < ThetaMin {
		lower = ThetaMin
	}
	if upper > ThetaMax {
		upper = ThetaMax
	}
	return lower, upper
}

// ClampTheta pulls a drifting estimate back into the domain. Out-of-range
// values from floating-point drift are clamped, never treated as errors.
func ClampTheta(theta float64) float64 {
	if theta < ThetaMin {
		return ThetaMin
	}
	if theta > ThetaMax {
		return ThetaMax
	}
	return theta
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
