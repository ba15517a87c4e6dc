package interest

type TimeCategory string

const (
	TimeVeryFast    TimeCategory = "very_fast"
	TimeOptimal     TimeCategory = "optimal"
	TimeModerate    TimeCategory = "moderate"
	TimeSlow        TimeCategory = "slow"
	TimeTimeoutRisk TimeCategory = "timeout_risk"
)

// ClassifyTime buckets an average response time relative to the
// configured optimal seconds-per-item.
func ClassifyTime(avgSeconds, optimalSeconds float64) TimeCategory {
	if optimalSeconds <= 0 {
		optimalSeconds = 60
	}
	ratio := avgSeconds / optimalSeconds

	switch {
	case ratio < 0.3:
		return TimeVeryFast
	case ratio <= 1.5:
		return TimeOptimal
	case ratio <= 2.5:
		return TimeModerate
	case ratio <= 4.0:
		return TimeSlow
	default:
		return TimeTimeoutRisk
	}
}

// TimeReward converts a time category plus accuracy into a score delta.
// Very fast answering reads as guessing when accuracy is low and as
// confident mastery when accuracy is high.
func TimeReward(category TimeCategory, accuracyPercent float64) float64 {
	switch category {
	case TimeVeryFast:
		if accuracyPercent >= 80 {
			return 4
		}
		if accuracyPercent < 50 {
			return -6
		}
		return 0
	case TimeOptimal:
		return 5
	case TimeModerate:
		return 1
	case TimeSlow:
		return -2
	case TimeTimeoutRisk:
		return -5
	default:
		return 0
	}
}
