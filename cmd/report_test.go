package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/montecarlo"
	"github.com/pitwall-sim/strategy-sim/sim/pit"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

func TestFormatRaceTime(t *testing.T) {
	assert.Equal(t, "83:21.234", formatRaceTime(5001.234))
	assert.Equal(t, "1:05.500", formatRaceTime(65.5))
	assert.Equal(t, "0:09.000", formatRaceTime(9))
}

func TestPrintRankings_TopNWithDelta(t *testing.T) {
	// GIVEN three ranked strategies
	var results []montecarlo.Result
	for i, mean := range []float64{5003, 5001, 5002} {
		s, err := sim.NewStrategy(
			sim.Stint{Compound: sim.Medium, Laps: 10 + i},
			sim.Stint{Compound: sim.Hard, Laps: 25},
			sim.Stint{Compound: sim.Medium, Laps: 22 - i},
		)
		require.NoError(t, err)
		results = append(results, montecarlo.Result{Strategy: s, GridPosition: 3, Summary: sim.Summary{Mean: mean}})
	}
	gr := montecarlo.GridRanking{
		GridEntry: montecarlo.GridEntry{Position: 3, Driver: "VER"},
		Rankings:  montecarlo.Rank(results),
	}

	// WHEN the top two are printed
	var buf bytes.Buffer
	printRankings(&buf, gr, 2)
	out := buf.String()

	// THEN the heading names the slot and only the two fastest appear
	assert.Contains(t, out, "=== P3 (VER) ===")
	assert.Contains(t, out, "M11-H25-M21")
	assert.Contains(t, out, "M12-H25-M20")
	assert.NotContains(t, out, "M10-H25-M22")
	assert.Contains(t, out, "+1.00")
}

func TestPrintRankings_UnassignedSlot(t *testing.T) {
	var buf bytes.Buffer
	printRankings(&buf, montecarlo.GridRanking{GridEntry: montecarlo.GridEntry{Position: 2}}, 5)
	assert.Contains(t, buf.String(), "P2 (unassigned)")
	assert.Contains(t, buf.String(), "no strategies")
}

func TestPrintThresholds_OneRowPerTransition(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	c, err := pit.NewCalculator(cfg, tire.DefaultModels(cfg.Race.BasePace))
	require.NoError(t, err)
	table, err := c.Table(nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printThresholds(&buf, table)
	out := buf.String()

	for _, tr := range pit.Transitions() {
		assert.Contains(t, out, tr.String())
	}
	assert.Contains(t, out, "40 to go")
	assert.Contains(t, out, "87.650") // MEDIUM->HARD, 10 to go
}

func TestPrintModels_FallbackAndPosterior(t *testing.T) {
	post, err := tire.NewPosteriorModel([]tire.ParamSample{{Alpha: 84.4, Beta: 0.07}, {Alpha: 84.6, Beta: 0.05}})
	require.NoError(t, err)
	models, err := tire.NewModels(map[sim.Compound]tire.Model{sim.Medium: post})
	require.NoError(t, err)

	var buf bytes.Buffer
	printModels(&buf, models)
	out := buf.String()

	assert.Contains(t, out, "bayesian")
	assert.Contains(t, out, "84.500")
	assert.Equal(t, 2, strings.Count(out, "-> MEDIUM"))
}

func TestCommands_EndToEnd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "thresholds",
			args: []string{"thresholds"},
			want: []string{"Pit thresholds", "HARD->SOFT"},
		},
		{
			name: "strategies for a driver without softs",
			args: []string{"strategies", "--driver", "LEC", "--per-pattern", "2"},
			want: []string{"M-H-M", "6 strategies"},
		},
		{
			name: "pit window",
			args: []string{"pit-window", "--from", "medium", "--to", "hard", "--stint-start", "0"},
			want: []string{"MEDIUM -> HARD from lap 0", "19 candidates"},
		},
		{
			name: "single traced race",
			args: []string{"race", "--strategy", "s7-m25-h25", "--grid", "3", "--seed", "1"},
			want: []string{"=== S7-M25-H25 from P3", "SOFT->MEDIUM", "MEDIUM->HARD", "Finished P"},
		},
		{
			name: "small run",
			args: []string{"run", "--num-sims", "3", "--workers", "2", "--grid", "1,10", "--per-pattern", "1", "--top", "2", "--seed", "7"},
			want: []string{"Compound models", "=== P1 (PIA) ===", "=== P10 (LEC) ===", "Pit thresholds"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetArgs(tc.args)
			t.Cleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetArgs(nil)
			})

			require.NoError(t, rootCmd.Execute())
			for _, w := range tc.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
