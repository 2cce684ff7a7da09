// Package strategy enumerates the feasible three-stint tire plans for a driver.
package strategy

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// DefaultPerPattern is the number of length variants kept per compound pattern.
const DefaultPerPattern = 5

// ErrNoFeasibleStrategies means the allocation and race rules admit no plan.
// Callers must treat it as a configuration error.
var ErrNoFeasibleStrategies = errors.New("no feasible strategies")

// Generator enumerates strategies under a RaceConfig.
type Generator struct {
	cfg        sim.RaceConfig
	perPattern int
}

// NewGenerator creates a Generator. perPattern <= 0 selects DefaultPerPattern.
func NewGenerator(cfg sim.RaceConfig, perPattern int) *Generator {
	if perPattern <= 0 {
		perPattern = DefaultPerPattern
	}
	return &Generator{cfg: cfg, perPattern: perPattern}
}

// patternGroup holds every length split for one compound triple.
type patternGroup struct {
	key        string
	strategies []sim.Strategy
}

// Generate returns the strategy space for driver. The result is deterministic
// for identical inputs. An empty space is returned together with
// ErrNoFeasibleStrategies.
func (g *Generator) Generate(driver string) ([]sim.Strategy, error) {
	rules := g.cfg.Rules(driver)
	groups := g.enumerate(rules)

	var out []sim.Strategy
	for _, grp := range groups {
		picked := subsample(grp.strategies, g.perPattern)
		logrus.Debugf("driver %s pattern %s: %d splits, keeping %d", driver, grp.key, len(grp.strategies), len(picked))
		out = append(out, picked...)
	}
	if len(out) == 0 {
		return []sim.Strategy{}, fmt.Errorf("driver %q (allocation %v): %w", driver, rules.Allocation, ErrNoFeasibleStrategies)
	}
	logrus.Infof("driver %s: %d strategies across %d compound patterns", driver, len(out), len(groups))
	return out, nil
}

// enumerate walks every ordered compound triple and every length split,
// grouping by pattern in first-seen order.
func (g *Generator) enumerate(rules sim.StrategyRules) []patternGroup {
	var groups []patternGroup
	cs := sim.AllCompounds
	for _, c1 := range cs {
		for _, c2 := range cs {
			for _, c3 := range cs {
				triple := []sim.Compound{c1, c2, c3}
				if !compoundsAllowed(triple, rules) {
					continue
				}
				grp := patternGroup{key: sim.PatternKey(triple...)}
				grp.strategies = splits(triple, rules)
				groups = append(groups, grp)
			}
		}
	}
	return groups
}

// compoundsAllowed applies the allocation, diversity and mandatory-compound filters.
func compoundsAllowed(triple []sim.Compound, rules sim.StrategyRules) bool {
	counts := make(map[sim.Compound]int, len(triple))
	for _, c := range triple {
		counts[c]++
	}
	for c, n := range counts {
		if n > rules.Allocation[c] {
			return false
		}
	}
	if len(counts) < rules.MinCompounds {
		return false
	}
	for _, m := range rules.Mandatory {
		if counts[m] == 0 {
			return false
		}
	}
	return true
}

// splits lists every (s1, s2, s3) with s1+s2+s3 == RaceLaps inside the stint
// bounds, s1 ascending then s2 ascending.
func splits(triple []sim.Compound, rules sim.StrategyRules) []sim.Strategy {
	var out []sim.Strategy
	for s1 := rules.MinStint; s1 <= rules.MaxStint; s1++ {
		for s2 := rules.MinStint; s2 <= rules.MaxStint; s2++ {
			s3 := rules.RaceLaps - s1 - s2
			if s3 < rules.MinStint {
				break
			}
			if s3 > rules.MaxStint {
				continue
			}
			st, err := sim.NewStrategy(
				sim.Stint{Compound: triple[0], Laps: s1},
				sim.Stint{Compound: triple[1], Laps: s2},
				sim.Stint{Compound: triple[2], Laps: s3},
			)
			if err != nil {
				// unreachable: compounds come from AllCompounds and laps >= MinStint >= 1
				logrus.Errorf("skipping split %d/%d/%d: %v", s1, s2, s3, err)
				continue
			}
			out = append(out, st)
		}
	}
	return out
}

// subsample keeps k evenly spaced entries (first and last included) when the
// group is larger than k.
func subsample(group []sim.Strategy, k int) []sim.Strategy {
	n := len(group)
	if n <= k {
		return group
	}
	if k == 1 {
		return group[:1]
	}
	out := make([]sim.Strategy, k)
	for i := 0; i < k; i++ {
		out[i] = group[i*(n-1)/(k-1)]
	}
	return out
}
