package buffer

import "gonum.org/v1/gonum/stat"

// Discounted computes the discounted returns of a finished episode's
// reward sequence, in execution order: the return at step t is the
// reward at t plus gamma times the return at t+1.
func Discounted(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))

	running := 0.0
	for i := len(rewards) - 1; i >= 0; i-- {
		running = rewards[i] + gamma*running
		returns[i] = running
	}

	return returns
}

// Normalize standardizes a discounted-return sequence to mean 0 and
// unit sample variance for variance-reduced gradient estimation.
//
// When the sample standard deviation is zero or undefined, as in a
// single-step episode or an episode with constant returns, dividing is
// skipped and the mean-centered returns are used as-is, so degenerate
// episodes never fail the update.
func Normalize(returns []float64) []float64 {
	normalized := make([]float64, len(returns))
	if len(returns) == 0 {
		return normalized
	}

	mean := stat.Mean(returns, nil)

	std := 1.0
	if len(returns) > 1 {
		if s := stat.StdDev(returns, nil); s > 0 {
			std = s
		}
	}

	for i, g := range returns {
		normalized[i] = (g - mean) / std
	}

	return normalized
}
