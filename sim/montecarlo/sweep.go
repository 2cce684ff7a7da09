package montecarlo

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pitwall-sim/strategy-sim/sim/strategy"
)

// GridEntry is one starting slot to analyse.
type GridEntry struct {
	Position int
	Driver   string
}

// GridRanking is the ranked strategy list for one grid slot.
type GridRanking struct {
	GridEntry
	Rankings []Ranking
}

// Sweep generates, evaluates and ranks the strategy space of every entry in
// order. It stops at the first failure or when ctx is done.
func (a *Aggregator) Sweep(ctx context.Context, gen *strategy.Generator, entries []GridEntry) ([]GridRanking, error) {
	out := make([]GridRanking, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		strategies, err := gen.Generate(e.Driver)
		if err != nil {
			return out, fmt.Errorf("P%d: %w", e.Position, err)
		}
		logrus.Infof("P%d (%s): running %d simulations for each of %d strategies", e.Position, e.Driver, a.NumSims, len(strategies))
		results, err := a.Evaluate(ctx, strategies, e.Position)
		if err != nil {
			return out, err
		}
		out = append(out, GridRanking{GridEntry: e, Rankings: Rank(results)})
	}
	return out, nil
}
