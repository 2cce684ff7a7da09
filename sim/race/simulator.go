// Package race simulates a single stochastic race for one strategy.
//
// A simulation is strictly sequential: lap state (position, fuel, elapsed
// time) accumulates lap by lap and is discarded when Run returns. A Simulator
// holds only read-only configuration and models, so one instance may be shared
// by many goroutines as long as each passes its own *rand.Rand.
package race

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

// State is the transient per-race state mutated lap by lap.
type State struct {
	Lap      int     // next lap to run (1-based)
	Position int     // current track position, always within [1, MaxPosition]
	FuelKg   float64 // remaining fuel, never negative
	Elapsed  float64 // accumulated race time, seconds
}

// Simulator computes race times for a configuration and compound model set.
type Simulator struct {
	cfg        sim.RaceConfig
	models     tire.Models
	fuelPerLap float64
	weightSum  float64
}

// NewSimulator validates its inputs and returns a Simulator.
func NewSimulator(cfg sim.RaceConfig, models tire.Models) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("race config: %w", err)
	}
	if models[sim.Medium] == nil {
		return nil, tire.ErrMissingCompound
	}
	sum := 0.0
	for _, w := range cfg.Pit.PositionWeights {
		sum += w
	}
	return &Simulator{cfg: cfg, models: models, fuelPerLap: cfg.FuelPerLap(), weightSum: sum}, nil
}

// Config returns the simulator's race configuration.
func (s *Simulator) Config() sim.RaceConfig { return s.cfg }

// Run returns the total race time in seconds for strategy started from grid.
func (s *Simulator) Run(strategy sim.Strategy, grid int, rng *rand.Rand) float64 {
	return s.run(strategy, grid, rng, nil)
}

// RunTraced is Run plus a lap-by-lap record of the race.
func (s *Simulator) RunTraced(strategy sim.Strategy, grid int, rng *rand.Rand) (float64, *Trace) {
	tr := NewTrace(strategy, grid)
	total := s.run(strategy, grid, rng, tr)
	return total, tr
}

func (s *Simulator) run(strategy sim.Strategy, grid int, rng *rand.Rand, tr *Trace) float64 {
	cfg := &s.cfg
	laps := cfg.Race.Laps
	carFactor := cfg.TeamFactor(grid)
	schedule := SampleSchedule(cfg, rng)
	if tr != nil {
		tr.Schedule = schedule
	}

	st := State{
		Lap:      1,
		Position: sim.ClampInt(grid, 1, cfg.Grid.MaxPosition),
		FuelKg:   cfg.Fuel.LoadKg,
	}
	stints := strategy.Stints()
	for i, stint := range stints {
		for lapInStint := 1; lapInStint <= stint.Laps; lapInStint++ {
			if st.Lap > laps {
				break
			}
			lapTime := s.lapTime(&st, stint.Compound, lapInStint, carFactor, schedule, rng)
			st.Elapsed += lapTime
			if tr != nil {
				tr.RecordLap(LapRecord{
					Lap: st.Lap, Stint: i + 1, Compound: stint.Compound, LapInStint: lapInStint,
					Position: st.Position, FuelKg: st.FuelKg, LapTime: lapTime,
					UnderSC: schedule.UnderSC(st.Lap), UnderVSC: schedule.UnderVSC(st.Lap),
				})
			}
			st.Lap++
		}

		if i < len(stints)-1 {
			before := st.Position
			loss := s.pitLoss(st.Lap, schedule, rng)
			st.Elapsed += loss
			st.Position = sim.ClampInt(st.Position+s.positionChange(rng), 1, cfg.Grid.MaxPosition)
			if tr != nil {
				tr.RecordPit(PitRecord{
					AfterLap: st.Lap - 1, From: stint.Compound, To: stints[i+1].Compound,
					Loss: loss, PositionBefore: before, PositionAfter: st.Position,
				})
			}
		}
	}
	return st.Elapsed
}

// lapTime computes one lap and advances the fuel load.
func (s *Simulator) lapTime(st *State, c sim.Compound, lapInStint int, carFactor float64, sched Schedule, rng *rand.Rand) float64 {
	cfg := &s.cfg
	t := s.models.SampleLapTime(c, lapInStint, rng, cfg.LapNoiseStd)
	t *= carFactor
	t += cfg.TrackEvolutionRate * float64(st.Lap)

	t += st.FuelKg * cfg.Fuel.EffectPerKg
	st.FuelKg = math.Max(0, st.FuelKg-s.fuelPerLap)

	t += cfg.PositionPenalty(st.Position)

	underSC, underVSC := sched.UnderSC(st.Lap), sched.UnderVSC(st.Lap)
	if st.Position > 1 && !underSC && !underVSC {
		if rng.Float64() < cfg.DRS.UsageProbability {
			gain := rng.NormFloat64()*cfg.DRS.GainStd + cfg.DRS.MedianGain
			t -= math.Max(cfg.DRS.MinGain, gain)
		}
	}

	t += s.shapeCorrection(c, lapInStint)

	if rng.Float64() < cfg.DriverError.Probability {
		t += cfg.DriverError.PenaltyMin + rng.Float64()*(cfg.DriverError.PenaltyMax-cfg.DriverError.PenaltyMin)
	}

	switch {
	case underSC:
		t *= cfg.SafetyCar.LapFactor
	case underVSC:
		t *= cfg.VirtualSafetyCar.LapFactor
	}
	return t
}

// shapeCorrection adds the soft-compound cliff and the hard-compound warm-up.
func (s *Simulator) shapeCorrection(c sim.Compound, lapInStint int) float64 {
	sh := s.cfg.TireShape
	switch c {
	case sim.Soft:
		if lapInStint > sh.SoftCliffLap {
			return math.Min(sh.SoftCliffCap, float64(lapInStint-sh.SoftCliffLap)*sh.SoftCliffRate)
		}
	case sim.Hard:
		if lapInStint < sh.HardWarmupLap {
			return math.Max(0, float64(sh.HardWarmupLap-lapInStint)*sh.HardWarmupRate)
		}
	}
	return 0
}

// pitLoss samples the stop cost; nextLap is the first lap after the stop.
func (s *Simulator) pitLoss(nextLap int, sched Schedule, rng *rand.Rand) float64 {
	p := s.cfg.Pit
	loss := rng.NormFloat64()*p.LossStd + p.LossMean

	from := nextLap - p.LookbackLaps
	if from < 1 {
		from = 1
	}
	sc, vsc := false, false
	for lap := from; lap <= nextLap; lap++ {
		sc = sc || sched.UnderSC(lap)
		vsc = vsc || sched.UnderVSC(lap)
	}
	switch {
	case sc:
		loss *= p.SCFactor
	case vsc:
		loss *= p.VSCFactor
	}
	return math.Max(p.LossFloor, loss)
}

// positionChange draws from the discrete pit-lane shuffle distribution.
func (s *Simulator) positionChange(rng *rand.Rand) int {
	p := s.cfg.Pit
	u := rng.Float64() * s.weightSum
	acc := 0.0
	for i, w := range p.PositionWeights {
		acc += w
		if u < acc {
			return p.PositionDeltas[i]
		}
	}
	return p.PositionDeltas[len(p.PositionDeltas)-1]
}
