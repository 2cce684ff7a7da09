// Package pit computes break-even lap-time thresholds for pitting onto a
// fresh compound, and searches the best pit lap for a fixed compound switch.
//
// Everything here uses point-estimate lap times; no randomness is involved.
package pit

import (
	"errors"
	"fmt"
	"math"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

// LookaheadCap bounds the number of fresh-tire laps averaged into a threshold.
const LookaheadCap = 25

// DefaultHorizons are the laps-remaining values reported in a threshold table.
var DefaultHorizons = []int{5, 10, 15, 20, 25, 30, 35, 40}

var (
	// ErrInvalidLapsRemaining is returned for a laps-remaining value <= 0,
	// where the pit-loss amortisation is undefined.
	ErrInvalidLapsRemaining = errors.New("laps remaining must be positive")

	// ErrEmptyPitWindow is returned when no pit lap satisfies the stint bounds.
	ErrEmptyPitWindow = errors.New("no pit lap inside the stint window")
)

// Transition is an ordered compound switch.
type Transition struct {
	From sim.Compound
	To   sim.Compound
}

func (t Transition) String() string { return fmt.Sprintf("%s->%s", t.From, t.To) }

// Transitions lists every ordered pair of distinct compounds.
func Transitions() []Transition {
	var out []Transition
	for _, from := range sim.AllCompounds {
		for _, to := range sim.AllCompounds {
			if from != to {
				out = append(out, Transition{From: from, To: to})
			}
		}
	}
	return out
}

// Threshold is the break-even lap time for one transition and horizon.
// Once the current tire is slower than Threshold, pitting is net faster.
type Threshold struct {
	Transition
	LapsRemaining int
	Threshold     float64
	NewTireLap1   float64 // fresh-tire lap time on its first lap
	AvgNewTire    float64 // mean fresh-tire lap time over the lookahead
	PitCostPerLap float64 // pit loss amortised over the remaining laps
}

// Calculator evaluates thresholds and pit windows for one model set.
type Calculator struct {
	models  tire.Models
	pitLoss float64
	race    sim.RaceParams
}

// NewCalculator binds the fixed pit loss and race rules from cfg to models.
func NewCalculator(cfg sim.RaceConfig, models tire.Models) (*Calculator, error) {
	if models[sim.Medium] == nil {
		return nil, tire.ErrMissingCompound
	}
	if cfg.Pit.LossMean < 0 || math.IsNaN(cfg.Pit.LossMean) {
		return nil, fmt.Errorf("pit loss must be non-negative, got %f", cfg.Pit.LossMean)
	}
	return &Calculator{models: models, pitLoss: cfg.Pit.LossMean, race: cfg.Race}, nil
}

// Threshold computes the break-even lap time for switching from -> to with
// lapsRemaining laps to go.
func (c *Calculator) Threshold(from, to sim.Compound, lapsRemaining int) (Threshold, error) {
	if lapsRemaining <= 0 {
		return Threshold{}, fmt.Errorf("%s->%s with %d laps: %w", from, to, lapsRemaining, ErrInvalidLapsRemaining)
	}
	n := min(lapsRemaining, LookaheadCap)
	sum := 0.0
	for lap := 1; lap <= n; lap++ {
		sum += c.models.LapTime(to, lap)
	}
	avg := sum / float64(n)
	perLap := c.pitLoss / float64(lapsRemaining)
	return Threshold{
		Transition:    Transition{From: from, To: to},
		LapsRemaining: lapsRemaining,
		Threshold:     avg + perLap,
		NewTireLap1:   c.models.LapTime(to, 1),
		AvgNewTire:    avg,
		PitCostPerLap: perLap,
	}, nil
}

// Table holds thresholds for every transition and horizon.
type Table struct {
	Horizons    []int
	Transitions []Transition
	Entries     map[Transition]map[int]Threshold
}

// Lookup returns the threshold for a transition and horizon.
func (t Table) Lookup(from, to sim.Compound, lapsRemaining int) (Threshold, bool) {
	row, ok := t.Entries[Transition{From: from, To: to}]
	if !ok {
		return Threshold{}, false
	}
	th, ok := row[lapsRemaining]
	return th, ok
}

// Table computes thresholds over all transitions. A nil horizons slice
// selects DefaultHorizons.
func (c *Calculator) Table(horizons []int) (Table, error) {
	if horizons == nil {
		horizons = DefaultHorizons
	}
	t := Table{
		Horizons:    append([]int(nil), horizons...),
		Transitions: Transitions(),
		Entries:     make(map[Transition]map[int]Threshold),
	}
	for _, tr := range t.Transitions {
		row := make(map[int]Threshold, len(horizons))
		for _, h := range horizons {
			th, err := c.Threshold(tr.From, tr.To, h)
			if err != nil {
				return Table{}, err
			}
			row[h] = th
		}
		t.Entries[tr] = row
	}
	return t, nil
}
