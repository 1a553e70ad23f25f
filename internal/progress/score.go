package progress

import "math"

// masteryFromScores returns the rounded mean percentage across scores.
func masteryFromScores(scores []QuizScore) int {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Percent()
	}
	return clampPercent(int(math.Round(sum / float64(len(scores)))))
}

// runningAverage folds pct into an average over n previous values.
func runningAverage(avg float64, n int, pct float64) float64 {
	if n < 0 {
		n = 0
	}
	return (avg*float64(n) + pct) / float64(n+1)
}
