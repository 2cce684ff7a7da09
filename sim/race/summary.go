package race

import (
	"math"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// TraceSummary aggregates statistics from a single-race Trace.
type TraceSummary struct {
	Laps            int
	PitStops        int
	TotalPitLoss    float64
	LapsUnderSC     int
	LapsUnderVSC    int
	FastestLap      int // 1-based race lap; 0 when there are no laps
	FastestLapTime  float64
	SlowestLap      int
	SlowestLapTime  float64
	FinishPosition  int
	PositionsGained int                  // grid minus finish; negative means places lost
	StintTimes      map[int]float64      // stint index (1-based) -> summed lap time
	CompoundLaps    map[sim.Compound]int // laps driven on each compound
}

// Summarize computes aggregate statistics from a Trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(tr *Trace) *TraceSummary {
	summary := &TraceSummary{
		StintTimes:   make(map[int]float64),
		CompoundLaps: make(map[sim.Compound]int),
	}
	if tr == nil {
		return summary
	}

	summary.PitStops = len(tr.Pits)
	for _, p := range tr.Pits {
		summary.TotalPitLoss += p.Loss
	}

	summary.Laps = len(tr.Laps)
	if summary.Laps == 0 {
		return summary
	}
	summary.FastestLapTime = math.Inf(1)
	summary.SlowestLapTime = math.Inf(-1)
	for _, l := range tr.Laps {
		summary.StintTimes[l.Stint] += l.LapTime
		summary.CompoundLaps[l.Compound]++
		if l.UnderSC {
			summary.LapsUnderSC++
		}
		if l.UnderVSC {
			summary.LapsUnderVSC++
		}
		if l.LapTime < summary.FastestLapTime {
			summary.FastestLap, summary.FastestLapTime = l.Lap, l.LapTime
		}
		if l.LapTime > summary.SlowestLapTime {
			summary.SlowestLap, summary.SlowestLapTime = l.Lap, l.LapTime
		}
	}
	summary.FinishPosition = tr.Laps[len(tr.Laps)-1].Position
	summary.PositionsGained = tr.Grid - summary.FinishPosition

	return summary
}
