package race

import "github.com/pitwall-sim/strategy-sim/sim"

// LapRecord captures the state of one completed lap.
type LapRecord struct {
	Lap        int
	Stint      int
	Compound   sim.Compound
	LapInStint int
	Position   int
	FuelKg     float64 // fuel remaining after the lap
	LapTime    float64
	UnderSC    bool
	UnderVSC   bool
}

// PitRecord captures one pit stop.
type PitRecord struct {
	AfterLap       int
	From           sim.Compound
	To             sim.Compound
	Loss           float64
	PositionBefore int
	PositionAfter  int
}

// Trace collects lap and pit records for a single simulated race.
type Trace struct {
	Strategy sim.Strategy
	Grid     int
	Schedule Schedule
	Laps     []LapRecord
	Pits     []PitRecord
}

// NewTrace creates a Trace ready for recording.
func NewTrace(strategy sim.Strategy, grid int) *Trace {
	return &Trace{
		Strategy: strategy,
		Grid:     grid,
		Laps:     make([]LapRecord, 0, strategy.TotalLaps()),
		Pits:     make([]PitRecord, 0, sim.StintsPerStrategy-1),
	}
}

// RecordLap appends a lap record.
func (t *Trace) RecordLap(r LapRecord) {
	t.Laps = append(t.Laps, r)
}

// RecordPit appends a pit record.
func (t *Trace) RecordPit(r PitRecord) {
	t.Pits = append(t.Pits, r)
}

// Total sums lap times and pit losses.
func (t *Trace) Total() float64 {
	total := 0.0
	for _, l := range t.Laps {
		total += l.LapTime
	}
	for _, p := range t.Pits {
		total += p.Loss
	}
	return total
}
