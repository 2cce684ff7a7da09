package pit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

func newCalculator(t *testing.T) (*Calculator, sim.RaceConfig, tire.Models) {
	t.Helper()
	cfg := sim.DefaultRaceConfig()
	models := tire.DefaultModels(cfg.Race.BasePace)
	c, err := NewCalculator(cfg, models)
	require.NoError(t, err)
	return c, cfg, models
}

func TestThreshold_MediumToHardTenLaps(t *testing.T) {
	// GIVEN HARD alpha 84.8, beta 0.04 and a 26.3s pit loss
	c, _, _ := newCalculator(t)

	// WHEN the threshold for 10 remaining laps is computed
	th, err := c.Threshold(sim.Medium, sim.Hard, 10)
	require.NoError(t, err)

	// THEN avg new tire = 84.8 + 0.04*5.5, pit cost = 2.63
	assert.InDelta(t, 85.02, th.AvgNewTire, 1e-9)
	assert.InDelta(t, 2.63, th.PitCostPerLap, 1e-9)
	assert.InDelta(t, 87.65, th.Threshold, 1e-9)
	assert.InDelta(t, 84.84, th.NewTireLap1, 1e-9)
	assert.Equal(t, "MEDIUM->HARD", th.Transition.String())
}

func TestThreshold_LookaheadIsCapped(t *testing.T) {
	c, cfg, models := newCalculator(t)

	th, err := c.Threshold(sim.Soft, sim.Medium, 40)
	require.NoError(t, err)

	sum := 0.0
	for lap := 1; lap <= LookaheadCap; lap++ {
		sum += models.LapTime(sim.Medium, lap)
	}
	assert.InDelta(t, sum/LookaheadCap, th.AvgNewTire, 1e-9)
	assert.InDelta(t, cfg.Pit.LossMean/40, th.PitCostPerLap, 1e-9)
}

func TestThreshold_DecreasesWithLapsRemaining(t *testing.T) {
	// GIVEN target compounds whose beta/2 stays below loss/(n(n+1)) up to the cap
	c, _, _ := newCalculator(t)
	for _, to := range []sim.Compound{sim.Medium, sim.Hard} {
		prev := math.Inf(1)
		for n := 1; n <= 60; n++ {
			th, err := c.Threshold(sim.Soft, to, n)
			require.NoError(t, err)
			assert.Less(t, th.Threshold, prev, "to=%s n=%d", to, n)
			prev = th.Threshold
		}
	}
}

func TestThreshold_FastDegradingTargetRisesBelowCap(t *testing.T) {
	// GIVEN SOFT with beta 0.12: beta/2 exceeds 26.3/(n(n+1)) for n in 21..24
	c, cfg, _ := newCalculator(t)
	beta := tire.DefaultShapes[sim.Soft].DegradationRate

	thresholds := make(map[int]float64)
	for n := 1; n <= 40; n++ {
		th, err := c.Threshold(sim.Medium, sim.Soft, n)
		require.NoError(t, err)
		thresholds[n] = th.Threshold
	}

	// THEN each step below the cap moves by beta/2 - loss/(n(n+1))
	for n := 1; n < LookaheadCap; n++ {
		want := beta/2 - cfg.Pit.LossMean/float64(n*(n+1))
		assert.InDelta(t, want, thresholds[n+1]-thresholds[n], 1e-9, "n=%d", n)
		if n < 21 {
			assert.Less(t, thresholds[n+1], thresholds[n], "n=%d", n)
		} else {
			assert.Greater(t, thresholds[n+1], thresholds[n], "n=%d", n)
		}
	}
	// THEN past the cap only the pit cost term changes, so it falls again
	for n := LookaheadCap; n < 40; n++ {
		assert.Less(t, thresholds[n+1], thresholds[n], "n=%d", n)
	}
	assert.InDelta(t, 86.6120, thresholds[25], 1e-4)
}

func TestThreshold_NonPositiveLapsRemaining(t *testing.T) {
	c, _, _ := newCalculator(t)
	for _, n := range []int{0, -3} {
		_, err := c.Threshold(sim.Medium, sim.Hard, n)
		assert.ErrorIs(t, err, ErrInvalidLapsRemaining)
	}
}

func TestTable_CoversEveryTransitionAndHorizon(t *testing.T) {
	c, _, _ := newCalculator(t)

	table, err := c.Table(nil)
	require.NoError(t, err)

	assert.Len(t, table.Transitions, 6)
	assert.Equal(t, DefaultHorizons, table.Horizons)
	for _, tr := range table.Transitions {
		assert.NotEqual(t, tr.From, tr.To)
		for _, h := range DefaultHorizons {
			th, ok := table.Lookup(tr.From, tr.To, h)
			require.True(t, ok, "%s at %d", tr, h)
			assert.Equal(t, h, th.LapsRemaining)
		}
	}
	_, ok := table.Lookup(sim.Soft, sim.Soft, 10)
	assert.False(t, ok)
	_, ok = table.Lookup(sim.Soft, sim.Hard, 11)
	assert.False(t, ok)

	_, err = c.Table([]int{5, 0})
	assert.ErrorIs(t, err, ErrInvalidLapsRemaining)
}

func TestNewCalculator_RejectsBadInputs(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	_, err := NewCalculator(cfg, tire.Models{})
	assert.ErrorIs(t, err, tire.ErrMissingCompound)

	cfg.Pit.LossMean = -1
	_, err = NewCalculator(cfg, tire.DefaultModels(cfg.Race.BasePace))
	assert.Error(t, err)
}

func TestOptimalPitLap_MatchesBruteForce(t *testing.T) {
	c, cfg, models := newCalculator(t)
	stint := func(comp sim.Compound, laps int) float64 {
		s := 0.0
		for l := 1; l <= laps; l++ {
			s += models.LapTime(comp, l)
		}
		return s
	}

	tests := []struct {
		from, to   sim.Compound
		stintStart int
		candidates int
	}{
		{sim.Medium, sim.Hard, 0, 19},  // laps 7..25
		{sim.Soft, sim.Medium, 20, 19}, // laps 27..45
		{sim.Hard, sim.Soft, 40, 4},    // laps 47..50
	}

	for _, tc := range tests {
		got, err := c.OptimalPitLap(tc.from, tc.to, tc.stintStart)
		require.NoError(t, err)
		assert.Equal(t, tc.candidates, got.Candidates)

		bestLap, best := 0, math.Inf(1)
		for lap := tc.stintStart + cfg.Race.MinStint; lap <= min(tc.stintStart+cfg.Race.MaxStint, cfg.Race.Laps-cfg.Race.MinStint); lap++ {
			total := stint(tc.from, lap-tc.stintStart) + cfg.Pit.LossMean + stint(tc.to, cfg.Race.Laps-lap)
			if total < best {
				bestLap, best = lap, total
			}
		}
		assert.Equal(t, bestLap, got.Lap)
		assert.InDelta(t, best, got.TotalTime, 1e-9)
	}
}

func TestOptimalPitLap_TiesPickEarliestLap(t *testing.T) {
	// GIVEN identical non-degrading compounds, every pit lap costs the same
	cfg := sim.DefaultRaceConfig()
	flat := map[sim.Compound]tire.Model{}
	for _, comp := range sim.AllCompounds {
		m, err := tire.NewPointModel(tire.KindLinear, 85, 0)
		require.NoError(t, err)
		flat[comp] = m
	}
	models, err := tire.NewModels(flat)
	require.NoError(t, err)
	c, err := NewCalculator(cfg, models)
	require.NoError(t, err)

	got, err := c.OptimalPitLap(sim.Medium, sim.Hard, 0)
	require.NoError(t, err)
	assert.Equal(t, cfg.Race.MinStint, got.Lap)
}

func TestOptimalPitLap_EmptyWindow(t *testing.T) {
	c, _, _ := newCalculator(t)
	_, err := c.OptimalPitLap(sim.Medium, sim.Hard, 45)
	assert.ErrorIs(t, err, ErrEmptyPitWindow)
}
