// Package montecarlo repeats race simulations per strategy, summarizes the
// resulting time distributions and ranks strategies by expected time.
package montecarlo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/race"
)

// DefaultNumSims is the number of races simulated per strategy.
const DefaultNumSims = 500

// Result is the simulated time distribution of one strategy from one grid slot.
type Result struct {
	Strategy     sim.Strategy
	GridPosition int
	Times        []float64
	Summary      sim.Summary
}

// Aggregator runs NumSims independent races per (strategy, grid position) unit.
//
// Units run in parallel on up to Workers goroutines. Each unit draws from its
// own RNG derived from Key and the unit name, so results do not depend on
// scheduling or worker count.
type Aggregator struct {
	Simulator *race.Simulator
	NumSims   int
	Workers   int
	Key       sim.SimulationKey
}

// NewAggregator creates an Aggregator. numSims <= 0 selects DefaultNumSims and
// workers <= 0 selects GOMAXPROCS.
func NewAggregator(simulator *race.Simulator, numSims, workers int, key sim.SimulationKey) *Aggregator {
	if numSims <= 0 {
		numSims = DefaultNumSims
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{Simulator: simulator, NumSims: numSims, Workers: workers, Key: key}
}

// Simulate runs one unit sequentially. It is the building block of Evaluate.
func (a *Aggregator) Simulate(strategy sim.Strategy, grid int) Result {
	rng := a.Key.RNG(sim.SubsystemUnit(strategy.Name(), grid))
	times := make([]float64, a.NumSims)
	for i := range times {
		times[i] = a.Simulator.Run(strategy, grid, rng)
	}
	return Result{
		Strategy:     strategy,
		GridPosition: grid,
		Times:        times,
		Summary:      sim.Summarize(times),
	}
}

// Evaluate simulates every strategy from grid. Results keep input order.
//
// Cancellation is checked before each unit starts; a unit in flight always
// completes. On cancellation the context error is returned and results are nil.
func (a *Aggregator) Evaluate(ctx context.Context, strategies []sim.Strategy, grid int) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Workers)
	for i, s := range strategies {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.Simulate(s, grid)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating P%d: %w", grid, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluating P%d: %w", grid, err)
	}
	logrus.Debugf("P%d: %d strategies x %d sims in %v", grid, len(strategies), a.NumSims, time.Since(start))
	return results, nil
}
