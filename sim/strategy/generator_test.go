package strategy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-sim/strategy-sim/sim"
)

func names(ss []sim.Strategy) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name()
	}
	return out
}

func TestGenerate_AllStrategiesSatisfyRules(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	g := NewGenerator(cfg, 0)

	for driver := range cfg.Allocations {
		t.Run(driver, func(t *testing.T) {
			ss, err := g.Generate(driver)
			require.NoError(t, err)
			require.NotEmpty(t, ss)
			rules := cfg.Rules(driver)
			for _, s := range ss {
				// sum == distance, bounds, diversity, mandatory, allocation
				assert.NoError(t, s.Validate(rules))
			}
		})
	}
}

func TestGenerate_ReferenceAllocation(t *testing.T) {
	// GIVEN 57 laps, stints 7..25 and allocation {SOFT:1, MEDIUM:3, HARD:1}
	cfg := sim.DefaultRaceConfig()
	g := NewGenerator(cfg, DefaultPerPattern)

	// WHEN generating for PIA
	ss, err := g.Generate("PIA")
	require.NoError(t, err)

	// THEN the 9 admissible patterns each keep 5 variants
	patterns := map[string]int{}
	for _, s := range ss {
		patterns[s.Pattern()]++
		counts := s.CompoundCounts()
		assert.LessOrEqual(t, counts[sim.Soft], 1, "%s uses SOFT twice", s.Name())
		assert.LessOrEqual(t, counts[sim.Hard], 1, "%s uses HARD twice", s.Name())
	}
	assert.Len(t, patterns, 9)
	for p, n := range patterns {
		assert.Equal(t, DefaultPerPattern, n, "pattern %s", p)
	}

	// AND S7-M25-H25 is accepted (first split of the S-M-H group)
	assert.Contains(t, names(ss), "S7-M25-H25")
	// AND no pattern uses SOFT twice
	for p := range patterns {
		assert.LessOrEqual(t, strings.Count(p, "S"), 1, p)
	}
}

func TestGenerate_DriverWithoutSofts(t *testing.T) {
	g := NewGenerator(sim.DefaultRaceConfig(), 3)
	ss, err := g.Generate("LEC")
	require.NoError(t, err)

	patterns := map[string]bool{}
	for _, s := range ss {
		patterns[s.Pattern()] = true
		assert.Zero(t, s.CompoundCounts()[sim.Soft])
	}
	assert.Equal(t, map[string]bool{"M-M-H": true, "M-H-M": true, "H-M-M": true}, patterns)
	assert.Len(t, ss, 9)
}

func TestGenerate_UnknownDriverUsesDefaultAllocation(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	ss, err := NewGenerator(cfg, 1).Generate("XXX")
	require.NoError(t, err)
	for _, s := range ss {
		assert.NoError(t, s.Validate(cfg.Rules("XXX")))
	}
	// default allocation {SOFT:2, MEDIUM:3, HARD:2} admits H-H-M style patterns
	assert.Contains(t, patternsOf(ss), "H-H-M")
}

func patternsOf(ss []sim.Strategy) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range ss {
		if !seen[s.Pattern()] {
			seen[s.Pattern()] = true
			out = append(out, s.Pattern())
		}
	}
	return out
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(sim.DefaultRaceConfig(), 4)
	a, err := g.Generate("ALO")
	require.NoError(t, err)
	b, err := g.Generate("ALO")
	require.NoError(t, err)
	assert.Equal(t, names(a), names(b))
}

func TestGenerate_InfeasibleIsConfigurationError(t *testing.T) {
	// GIVEN a driver with no HARD sets while HARD is mandatory
	cfg := sim.DefaultRaceConfig()
	cfg.Allocations["NOH"] = sim.Allocation{sim.Soft: 3, sim.Medium: 3, sim.Hard: 0}

	ss, err := NewGenerator(cfg, 0).Generate("NOH")

	// THEN the result is empty and the error is reported
	assert.Empty(t, ss)
	assert.True(t, errors.Is(err, ErrNoFeasibleStrategies))
}

func TestGenerate_StintBoundsTooTightForDistance(t *testing.T) {
	cfg := sim.DefaultRaceConfig()
	cfg.Race.MaxStint = 15 // 3*15 < 57
	_, err := NewGenerator(cfg, 0).Generate("PIA")
	assert.ErrorIs(t, err, ErrNoFeasibleStrategies)
}

func TestSubsample_EvenlySpaced(t *testing.T) {
	var group []sim.Strategy
	for s1 := 7; s1 <= 17; s1++ {
		st, err := sim.NewStrategy(
			sim.Stint{Compound: sim.Soft, Laps: s1},
			sim.Stint{Compound: sim.Medium, Laps: 20},
			sim.Stint{Compound: sim.Hard, Laps: 37 - s1},
		)
		require.NoError(t, err)
		group = append(group, st)
	}
	// n=11, k=5 -> indices 0, 2, 5, 7, 10
	got := subsample(group, 5)
	assert.Equal(t, []string{"S7-M20-H30", "S9-M20-H28", "S12-M20-H25", "S14-M20-H23", "S17-M20-H20"}, names(got))

	assert.Len(t, subsample(group, 20), 11)
	assert.Equal(t, []string{"S7-M20-H30"}, names(subsample(group, 1)))
}
