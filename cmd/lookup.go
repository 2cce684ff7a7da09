package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/race"
	"github.com/pitwall-sim/strategy-sim/sim/strategy"
)

// strategiesCmd lists the candidate strategies for one driver without simulating them
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the feasible strategies for a driver's tire allocation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _ := loadInputs(configPath, "")
		strategies, err := strategy.NewGenerator(cfg, perPattern).Generate(driver)
		if err != nil {
			logrus.Fatalf("Cannot generate strategies: %v", err)
		}
		printStrategies(cmd.OutOrStdout(), strategies)
	},
}

// thresholdsCmd prints the pit threshold table
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Print break-even lap times for every compound switch",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, models := loadInputs(configPath, modelsPath)
		table, err := newCalculator(cfg, models).Table(nil)
		if err != nil {
			logrus.Fatalf("Cannot compute pit thresholds: %v", err)
		}
		printThresholds(cmd.OutOrStdout(), table)
	},
}

// pitWindowCmd finds the best lap to switch compounds and run to the flag
var pitWindowCmd = &cobra.Command{
	Use:   "pit-window",
	Short: "Find the optimal pit lap for a single compound switch",
	Run: func(cmd *cobra.Command, args []string) {
		from, err := sim.ParseCompound(fromCompound)
		if err != nil {
			logrus.Fatalf("Invalid --from: %v", err)
		}
		to, err := sim.ParseCompound(toCompound)
		if err != nil {
			logrus.Fatalf("Invalid --to: %v", err)
		}
		cfg, models := loadInputs(configPath, modelsPath)
		res, err := newCalculator(cfg, models).OptimalPitLap(from, to, stintStartLap)
		if err != nil {
			logrus.Fatalf("No pit window: %v", err)
		}
		printPitLap(cmd.OutOrStdout(), from, to, stintStartLap, res)
	},
}

// raceCmd replays a single traced race for one strategy
var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Simulate one race for a strategy and print its pit stops and summary",
	Run: func(cmd *cobra.Command, args []string) {
		strat, err := sim.ParseStrategy(strategyName)
		if err != nil {
			logrus.Fatalf("Invalid --strategy: %v", err)
		}
		cfg, models := loadInputs(configPath, modelsPath)
		grid := gridEntries(cfg, []int{gridPosition})[0]
		if err := strat.Validate(cfg.Rules(grid.Driver)); err != nil {
			logrus.Warnf("Strategy breaks the race rules: %v", err)
		}
		simulator, err := race.NewSimulator(cfg, models)
		if err != nil {
			logrus.Fatalf("Cannot build race simulator: %v", err)
		}
		rng := sim.NewSimulationKey(seed).RNG(sim.SubsystemUnit(strat.Name(), grid.Position))
		total, tr := simulator.RunTraced(strat, grid.Position, rng)
		printTrace(cmd.OutOrStdout(), tr, total)
	},
}
