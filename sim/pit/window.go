package pit

import (
	"fmt"
	"math"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// PitLap is the outcome of an optimal pit-lap search.
type PitLap struct {
	Lap        int     // race lap on which the stop is made
	TotalTime  float64 // both stints plus the pit loss, seconds
	Candidates int     // number of laps evaluated
}

// OptimalPitLap scans every pit lap in the window allowed by the stint bounds
// and returns the one minimising total time for a from -> to switch that runs
// to the flag. stintStart is the last lap completed before the first stint
// (0 at the start of the race). The earliest lap wins ties.
func (c *Calculator) OptimalPitLap(from, to sim.Compound, stintStart int) (PitLap, error) {
	first := stintStart + c.race.MinStint
	last := min(stintStart+c.race.MaxStint, c.race.Laps-c.race.MinStint)
	if first > last {
		return PitLap{}, fmt.Errorf("%s->%s from lap %d: window [%d, %d]: %w", from, to, stintStart, first, last, ErrEmptyPitWindow)
	}

	best := PitLap{Lap: first, TotalTime: math.Inf(1)}
	for lap := first; lap <= last; lap++ {
		total := c.stintTime(from, lap-stintStart) + c.pitLoss + c.stintTime(to, c.race.Laps-lap)
		best.Candidates++
		if total < best.TotalTime {
			best.Lap = lap
			best.TotalTime = total
		}
	}
	return best, nil
}

func (c *Calculator) stintTime(compound sim.Compound, laps int) float64 {
	total := 0.0
	for lap := 1; lap <= laps; lap++ {
		total += c.models.LapTime(compound, lap)
	}
	return total
}
