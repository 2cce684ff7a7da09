package race

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

func TestSummarize_NilAndEmpty(t *testing.T) {
	for _, tr := range []*Trace{nil, NewTrace(sim.Strategy{}, 1)} {
		s := Summarize(tr)
		assert.Zero(t, s.Laps)
		assert.Zero(t, s.FastestLap)
		assert.NotNil(t, s.StintTimes)
		assert.NotNil(t, s.CompoundLaps)
	}
}

func TestSummarize_HandBuiltTrace(t *testing.T) {
	// GIVEN a three-lap trace with one stop and one neutralised lap
	tr := NewTrace(referenceStrategy(t), 5)
	tr.RecordLap(LapRecord{Lap: 1, Stint: 1, Compound: sim.Soft, Position: 5, LapTime: 85.0})
	tr.RecordLap(LapRecord{Lap: 2, Stint: 1, Compound: sim.Soft, Position: 5, LapTime: 119.0, UnderSC: true})
	tr.RecordPit(PitRecord{AfterLap: 2, From: sim.Soft, To: sim.Medium, Loss: 4.0, PositionBefore: 5, PositionAfter: 7})
	tr.RecordLap(LapRecord{Lap: 3, Stint: 2, Compound: sim.Medium, Position: 7, LapTime: 84.5})

	s := Summarize(tr)

	assert.Equal(t, 3, s.Laps)
	assert.Equal(t, 1, s.PitStops)
	assert.Equal(t, 4.0, s.TotalPitLoss)
	assert.Equal(t, 1, s.LapsUnderSC)
	assert.Zero(t, s.LapsUnderVSC)
	assert.Equal(t, 3, s.FastestLap)
	assert.Equal(t, 84.5, s.FastestLapTime)
	assert.Equal(t, 2, s.SlowestLap)
	assert.Equal(t, 7, s.FinishPosition)
	assert.Equal(t, -2, s.PositionsGained)
	assert.Equal(t, map[int]float64{1: 204.0, 2: 84.5}, s.StintTimes)
	assert.Equal(t, map[sim.Compound]int{sim.Soft: 2, sim.Medium: 1}, s.CompoundLaps)
}

func TestSummarize_SimulatedRaceIsConsistent(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	s, err := NewSimulator(cfg, tire.DefaultModels(cfg.Race.BasePace))
	require.NoError(t, err)
	strat := referenceStrategy(t)

	total, tr := s.RunTraced(strat, 8, rand.New(rand.NewSource(11)))
	sum := Summarize(tr)

	// THEN per-stint times plus pit losses rebuild the race time
	rebuilt := sum.TotalPitLoss
	for _, v := range sum.StintTimes {
		rebuilt += v
	}
	assert.InDelta(t, total, rebuilt, 1e-6)
	assert.Equal(t, 57, sum.Laps)
	assert.Equal(t, 2, sum.PitStops)
	for _, st := range strat.Stints() {
		assert.Equal(t, st.Laps, sum.CompoundLaps[st.Compound])
	}
	assert.LessOrEqual(t, sum.FastestLapTime, sum.SlowestLapTime)
}
