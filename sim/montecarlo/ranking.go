package montecarlo

import "sort"

// Ranking is one entry of a ranked strategy list.
type Ranking struct {
	Rank  int     // 1-based
	Delta float64 // mean time minus the fastest mean, seconds
	Result
}

// Rank orders results by ascending mean time. Ties keep input order.
// The input slice is not modified.
func Rank(results []Result) []Ranking {
	sorted := make([]Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Summary.Mean < sorted[j].Summary.Mean
	})

	out := make([]Ranking, len(sorted))
	for i, r := range sorted {
		out[i] = Ranking{Rank: i + 1, Delta: r.Summary.Mean - sorted[0].Summary.Mean, Result: r}
	}
	return out
}

// Top returns at most n leading entries.
func Top(rankings []Ranking, n int) []Ranking {
	if n <= 0 || n >= len(rankings) {
		return rankings
	}
	return rankings[:n]
}
