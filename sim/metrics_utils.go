// sim/metrics_utils.go
package sim

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary captures the distribution of simulated race times (seconds).
type Summary struct {
	Mean   float64
	Median float64
	StdDev float64 // population standard deviation
	Min    float64
	Max    float64
	P05    float64
	P95    float64
	Count  int
}

// Summarize computes a Summary from raw race times.
// Returns zero-value Summary for empty input. The input slice is not modified.
func Summarize(times []float64) Summary {
	if len(times) == 0 {
		return Summary{}
	}
	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Summary{
		Mean:   mean,
		Median: median(sorted),
		StdDev: std,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		P05:    stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Count:  len(sorted),
	}
}

// median averages the two middle values for even-length input. Input must be sorted.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
