package irt

import (
	"math"
	"testing"
)

func TestProbabilityBounds(t *testing.T) {
	// P must stay strictly inside (c, 1) across the whole parameter grid,
	// including the saturated corners.
	for _, theta := range []float64{-3, -1.5, 0, 1.5, 3} {
		for _, b := range []float64{-3, -1, 0, 1, 3} {
			for _, a := range []float64{0.5, 1.0, 1.7, 2.5} {
				for _, c := range []float64{0, 0.2, 0.25, 0.5} {
					p := Probability(theta, b, a, c)
					if p <= c || p >= 1 {
						t.Errorf("Probability(%v, %v, %v, %v) = %v, want in (%v, 1)", theta, b, a, c, p, c)
					}
				}
			}
		}
	}
}

func TestProbabilityMidpoint(t *testing.T) {
	// At θ=b the logistic term is 0.5, so p = c + (1-c)/2.
	got := Probability(0, 0, 1.0, 0.25)
	want := 0.625
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Probability(0, 0, 1, 0.25) = %v, want %v", got, want)
	}
}

func TestProbabilityExtremeOffsets(t *testing.T) {
	// θ-b = ±12 must not overflow or produce NaN.
	hi := Probability(3, -9, 2.5, 0.25)
	lo := Probability(-3, 9, 2.5, 0.25)
	if math.IsNaN(hi) || math.IsNaN(lo) {
		t.Fatalf("Probability produced NaN at extreme offsets: hi=%v lo=%v", hi, lo)
	}
	if hi < 0.99 {
		t.Errorf("Probability(3, -9, 2.5, 0.25) = %v, want near 1", hi)
	}
	if lo > 0.26 {
		t.Errorf("Probability(-3, 9, 2.5, 0.25) = %v, want near guessing floor", lo)
	}
}

func TestInformationPeaksAtDifficulty(t *testing.T) {
	const a, c = 1.5, 0.0
	b := 0.5

	atB := Information(b, b, a, c)
	for _, offset := range []float64{0.5, 1.0, 2.0} {
		below := Information(b-offset, b, a, c)
		above := Information(b+offset, b, a, c)
		if below >= atB || above >= atB {
			t.Errorf("Information not maximal at θ=b: I(b)=%v I(b-%v)=%v I(b+%v)=%v", atB, offset, below, offset, above)
		}
	}
}

func TestInformationIncreasesWithDiscrimination(t *testing.T) {
	prev := 0.0
	for _, a := range []float64{0.5, 1.0, 1.5, 2.0, 2.5} {
		info := Information(0, 0, a, 0.1)
		if info <= prev {
			t.Errorf("Information(0, 0, %v, 0.1) = %v, want > %v", a, info, prev)
		}
		prev = info
	}
}

func TestInformationNonNegative(t *testing.T) {
	for _, theta := range []float64{-3, 0, 3} {
		for _, c := range []float64{0, 0.25, 0.9} {
			info := Information(theta, 1.2, 0.5, c)
			if info < 0 || math.IsNaN(info) {
				t.Errorf("Information(%v, 1.2, 0.5, %v) = %v, want ≥ 0", theta, c, info)
			}
		}
	}
}
