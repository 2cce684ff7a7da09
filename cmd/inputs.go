package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/montecarlo"
	"github.com/pitwall-sim/strategy-sim/sim/pit"
	"github.com/pitwall-sim/strategy-sim/sim/tire"
)

// readInputs resolves the race config and compound models. Empty paths select
// the built-in reference race and the default models anchored on its base pace.
func readInputs(cfgPath, modelsPath string) (sim.RaceConfig, tire.Models, error) {
	cfg := sim.DefaultRaceConfig()
	if cfgPath != "" {
		var err error
		if cfg, err = sim.LoadRaceConfig(cfgPath); err != nil {
			return sim.RaceConfig{}, nil, err
		}
		logrus.Debugf("Loaded race config %q from %s", cfg.Race.Name, cfgPath)
	}

	if modelsPath == "" {
		logrus.Infof("No compound models given; using defaults around base pace %.3fs", cfg.Race.BasePace)
		return cfg, tire.DefaultModels(cfg.Race.BasePace), nil
	}
	models, err := tire.LoadModels(modelsPath)
	if err != nil {
		return sim.RaceConfig{}, nil, err
	}
	return cfg, models, nil
}

// loadInputs is readInputs for command handlers: any failure is fatal.
func loadInputs(cfgPath, modelsPath string) (sim.RaceConfig, tire.Models) {
	cfg, models, err := readInputs(cfgPath, modelsPath)
	if err != nil {
		logrus.Fatalf("Failed to load inputs: %v", err)
	}
	return cfg, models
}

// resolveGrid maps grid slots to drivers. No slots selects the configured positions.
func resolveGrid(cfg sim.RaceConfig, slots []int) ([]montecarlo.GridEntry, error) {
	if len(slots) == 0 {
		slots = cfg.Grid.Positions
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no grid positions to analyse")
	}
	entries := make([]montecarlo.GridEntry, 0, len(slots))
	for _, p := range slots {
		if p < 1 || p > cfg.Grid.MaxPosition {
			return nil, fmt.Errorf("grid position %d outside [1, %d]", p, cfg.Grid.MaxPosition)
		}
		entries = append(entries, montecarlo.GridEntry{Position: p, Driver: cfg.DriverFor(p)})
	}
	return entries, nil
}

func gridEntries(cfg sim.RaceConfig, slots []int) []montecarlo.GridEntry {
	entries, err := resolveGrid(cfg, slots)
	if err != nil {
		logrus.Fatalf("Invalid --grid: %v", err)
	}
	return entries
}

func newCalculator(cfg sim.RaceConfig, models tire.Models) *pit.Calculator {
	c, err := pit.NewCalculator(cfg, models)
	if err != nil {
		logrus.Fatalf("Cannot build pit calculator: %v", err)
	}
	return c
}
