// Package stats summarizes query latency samples.
package stats

import (
	"math"
	"slices"
	"time"
)

// Tail holds the tail latency of a sample set.
type Tail struct {
	P50, P95, P99, Max time.Duration
}

// Summarize computes nearest-rank percentiles over samples without
// modifying it. With few samples P95 and P99 equal Max.
func Summarize(samples []time.Duration) Tail {
	if len(samples) == 0 {
		return Tail{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return Tail{
		P50: Percentile(sorted, 0.50),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// Percentile returns the nearest-rank value at p (0..1) of an ascending
// slice: index ceil(n*p)-1, clamped to the slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
