package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pitwall-sim/strategy-sim/sim"
	"github.com/pitwall-sim/strategy-sim/sim/montecarlo"
	"github.com/pitwall-sim/strategy-sim/sim/race"
	"github.com/pitwall-sim/strategy-sim/sim/strategy"
)

var (
	// Shared inputs
	logLevel   string // Log verbosity level
	configPath string // Race config YAML; empty = built-in reference race
	modelsPath string // Compound models YAML; empty = default models from base pace

	// Monte Carlo run
	seed       int64         // Root seed for every simulation unit
	numSims    int           // Simulations per (strategy, grid slot)
	workers    int           // Concurrent simulation units; 0 = GOMAXPROCS
	timeout    time.Duration // Abort the run after this long; 0 = no limit
	topN       int           // Strategies printed per grid slot
	perPattern int           // Strategies kept per compound pattern
	gridSlots  []int         // Grid positions to analyse; empty = config positions

	// Single-lookup commands
	driver        string // Driver code for `strategies`
	fromCompound  string // Current compound for `pit-window`
	toCompound    string // Next compound for `pit-window`
	stintStartLap int    // Last lap completed before the current stint
	strategyName  string // Strategy for `race`, e.g. S7-M25-H25
	gridPosition  int    // Grid slot for `race`
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "strategy-sim",
	Short: "Monte Carlo race strategy simulator",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd sweeps the grid slots and prints the ranked strategies for each
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate and rank every feasible strategy for each grid slot",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, models := loadInputs(configPath, modelsPath)

		simulator, err := race.NewSimulator(cfg, models)
		if err != nil {
			logrus.Fatalf("Cannot build race simulator: %v", err)
		}
		if cmd.Flags().Changed("workers") && workers <= 0 {
			logrus.Fatalf("--workers must be positive, got %d", workers)
		}
		agg := montecarlo.NewAggregator(simulator, numSims, workers, sim.NewSimulationKey(seed))
		gen := strategy.NewGenerator(cfg, perPattern)

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		logrus.Infof("Starting %s with seed=%d, sims=%d, workers=%d", cfg.Race.Name, seed, agg.NumSims, agg.Workers)
		start := time.Now()

		rankings, err := agg.Sweep(ctx, gen, gridEntries(cfg, gridSlots))
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		printModels(out, models)
		for _, gr := range rankings {
			printRankings(out, gr, topN)
		}
		table, err := newCalculator(cfg, models).Table(nil)
		if err != nil {
			logrus.Fatalf("Cannot compute pit thresholds: %v", err)
		}
		printThresholds(out, table)

		logrus.Infof("Simulation complete in %s", time.Since(start).Round(time.Millisecond))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to race config YAML (default: built-in reference race)")
	rootCmd.PersistentFlags().StringVar(&modelsPath, "models", "", "Path to compound models YAML (default: models derived from base pace)")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Root seed for all simulations")
	runCmd.Flags().IntVar(&numSims, "num-sims", montecarlo.DefaultNumSims, "Simulations per strategy and grid slot")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent simulation units (default: GOMAXPROCS)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the run after this duration (0 = no limit)")
	runCmd.Flags().IntVar(&topN, "top", 5, "Strategies printed per grid slot (0 = all)")
	runCmd.Flags().IntVar(&perPattern, "per-pattern", strategy.DefaultPerPattern, "Strategies kept per compound pattern")
	runCmd.Flags().IntSliceVar(&gridSlots, "grid", nil, "Comma-separated grid positions (default: positions from config)")

	strategiesCmd.Flags().StringVar(&driver, "driver", "", "Driver code whose allocation constrains the strategies")
	strategiesCmd.Flags().IntVar(&perPattern, "per-pattern", strategy.DefaultPerPattern, "Strategies kept per compound pattern")

	pitWindowCmd.Flags().StringVar(&fromCompound, "from", string(sim.Medium), "Compound of the current stint")
	pitWindowCmd.Flags().StringVar(&toCompound, "to", string(sim.Hard), "Compound fitted at the stop")
	pitWindowCmd.Flags().IntVar(&stintStartLap, "stint-start", 0, "Last lap completed before the current stint")

	raceCmd.Flags().StringVar(&strategyName, "strategy", "S7-M25-H25", "Strategy to simulate, as compound initials and stint lengths")
	raceCmd.Flags().IntVar(&gridPosition, "grid", 1, "Starting grid position")
	raceCmd.Flags().Int64Var(&seed, "seed", 42, "Root seed for the race")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(pitWindowCmd)
	rootCmd.AddCommand(raceCmd)
}
