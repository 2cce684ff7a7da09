package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// RaceParams groups the fixed race-distance and stint rules.
type RaceParams struct {
	Name               string     `yaml:"name"`
	Laps               int        `yaml:"laps"`                // race distance (must be > 0)
	MandatoryPitStops  int        `yaml:"mandatory_pit_stops"` // informational; plans always have StintsPerStrategy stints
	MinStint           int        `yaml:"min_stint"`
	MaxStint           int        `yaml:"max_stint"`
	MinCompounds       int        `yaml:"min_compounds"`
	MandatoryCompounds []Compound `yaml:"mandatory_compounds"`
	BasePace           float64    `yaml:"base_pace"` // seconds; anchors default compound models
}

// PitConfig groups pit-stop time loss and the post-stop position shuffle.
type PitConfig struct {
	LossMean        float64   `yaml:"loss_mean"`
	LossStd         float64   `yaml:"loss_std"`
	LossFloor       float64   `yaml:"loss_floor"`
	SCFactor        float64   `yaml:"sc_factor"`     // loss multiplier when pitting under full safety car
	VSCFactor       float64   `yaml:"vsc_factor"`    // loss multiplier when pitting under virtual safety car
	LookbackLaps    int       `yaml:"lookback_laps"` // laps before the stop checked for neutralisation
	PositionDeltas  []int     `yaml:"position_deltas"`
	PositionWeights []float64 `yaml:"position_weights"`
}

// FuelConfig groups fuel-load parameters.
type FuelConfig struct {
	LoadKg            float64 `yaml:"load_kg"`
	EffectPerKg       float64 `yaml:"effect_per_kg"`       // seconds per kg carried
	ConsumptionPerLap float64 `yaml:"consumption_per_lap"` // 0 = LoadKg / Laps
}

// NeutralisationConfig parameterizes one safety-car regime.
type NeutralisationConfig struct {
	Probability     float64 `yaml:"probability"`
	StartMin        int     `yaml:"start_min"`
	StartTailMargin int     `yaml:"start_tail_margin"` // latest start = Laps - StartTailMargin
	DurationMin     int     `yaml:"duration_min"`
	DurationMax     int     `yaml:"duration_max"`
	LapFactor       float64 `yaml:"lap_factor"` // lap-time multiplier while active
}

// DRSConfig parameterizes the overtaking-aid time gain.
type DRSConfig struct {
	UsageProbability float64 `yaml:"usage_probability"`
	MedianGain       float64 `yaml:"median_gain"`
	GainStd          float64 `yaml:"gain_std"`
	MinGain          float64 `yaml:"min_gain"`
}

// DriverErrorConfig parameterizes one-off driver mistakes.
type DriverErrorConfig struct {
	Probability float64 `yaml:"probability"`
	PenaltyMin  float64 `yaml:"penalty_min"`
	PenaltyMax  float64 `yaml:"penalty_max"`
}

// TireShapeConfig holds the non-linear corrections on top of the linear compound model.
type TireShapeConfig struct {
	SoftCliffLap   int     `yaml:"soft_cliff_lap"`
	SoftCliffRate  float64 `yaml:"soft_cliff_rate"`
	SoftCliffCap   float64 `yaml:"soft_cliff_cap"`
	HardWarmupLap  int     `yaml:"hard_warmup_lap"`
	HardWarmupRate float64 `yaml:"hard_warmup_rate"`
}

// GridConfig holds the per-position lookup tables.
type GridConfig struct {
	MaxPosition            int             `yaml:"max_position"`
	TeamFactors            map[int]float64 `yaml:"team_factors"`
	DefaultTeamFactor      float64         `yaml:"default_team_factor"`
	PositionPenalties      []float64       `yaml:"position_penalties"` // index 0 = P1
	DefaultPositionPenalty float64         `yaml:"default_position_penalty"`
	Drivers                map[int]string  `yaml:"drivers"`
	Positions              []int           `yaml:"positions"` // grid slots analysed by default
}

// RaceConfig is the immutable configuration passed into every component.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RaceConfig struct {
	Race               RaceParams            `yaml:"race"`
	Pit                PitConfig             `yaml:"pit"`
	Fuel               FuelConfig            `yaml:"fuel"`
	TrackEvolutionRate float64               `yaml:"track_evolution_rate"` // seconds per race lap
	LapNoiseStd        float64               `yaml:"lap_noise_std"`        // used when a model has no posterior
	SafetyCar          NeutralisationConfig  `yaml:"safety_car"`
	VirtualSafetyCar   NeutralisationConfig  `yaml:"virtual_safety_car"`
	DRS                DRSConfig             `yaml:"drs"`
	DriverError        DriverErrorConfig     `yaml:"driver_error"`
	TireShape          TireShapeConfig       `yaml:"tire_shape"`
	Grid               GridConfig            `yaml:"grid"`
	Allocations        map[string]Allocation `yaml:"allocations"`
	DefaultAllocation  Allocation            `yaml:"default_allocation"`
}

// DefaultRaceConfig returns the reference Lusail configuration.
func DefaultRaceConfig() RaceConfig {
	standard := Allocation{Soft: 1, Medium: 3, Hard: 1}
	return RaceConfig{
		Race: RaceParams{
			Name:               "Qatar Grand Prix",
			Laps:               57,
			MandatoryPitStops:  2,
			MinStint:           7,
			MaxStint:           25,
			MinCompounds:       2,
			MandatoryCompounds: []Compound{Hard, Medium},
			BasePace:           84.0,
		},
		Pit: PitConfig{
			LossMean:        26.3,
			LossStd:         1.5,
			LossFloor:       15.0,
			SCFactor:        0.15,
			VSCFactor:       0.50,
			LookbackLaps:    2,
			PositionDeltas:  []int{-2, -1, 0, 1, 2},
			PositionWeights: []float64{0.10, 0.25, 0.40, 0.20, 0.05},
		},
		Fuel: FuelConfig{
			LoadKg:      110,
			EffectPerKg: 0.035,
		},
		TrackEvolutionRate: -0.003,
		LapNoiseStd:        0.25,
		SafetyCar: NeutralisationConfig{
			Probability: 0.67, StartMin: 1, StartTailMargin: 6,
			DurationMin: 3, DurationMax: 5, LapFactor: 1.40,
		},
		VirtualSafetyCar: NeutralisationConfig{
			Probability: 0.67, StartMin: 1, StartTailMargin: 4,
			DurationMin: 2, DurationMax: 3, LapFactor: 1.20,
		},
		DRS: DRSConfig{UsageProbability: 0.35, MedianGain: 0.35, GainStd: 0.12, MinGain: 0.1},
		DriverError: DriverErrorConfig{
			Probability: 0.006, PenaltyMin: 0.8, PenaltyMax: 2.5,
		},
		TireShape: TireShapeConfig{
			SoftCliffLap: 12, SoftCliffRate: 0.04, SoftCliffCap: 0.8,
			HardWarmupLap: 5, HardWarmupRate: 0.08,
		},
		Grid: GridConfig{
			MaxPosition: 20,
			TeamFactors: map[int]float64{
				1: 1.000, 2: 1.000, 3: 1.008, 4: 1.006, 5: 1.006,
				6: 1.015, 7: 1.009, 8: 1.016, 9: 1.015, 10: 1.009,
			},
			DefaultTeamFactor: 1.01,
			PositionPenalties: []float64{
				0.00, 0.08, 0.15, 0.22, 0.28, 0.33, 0.38, 0.42, 0.46, 0.50,
				0.53, 0.56, 0.58, 0.60, 0.62, 0.63, 0.64, 0.65, 0.66, 0.67,
			},
			DefaultPositionPenalty: 0.67,
			Drivers:                map[int]string{1: "PIA", 3: "VER", 5: "ANT", 8: "ALO", 10: "LEC"},
			Positions:              []int{1, 3, 5, 8, 10},
		},
		Allocations: map[string]Allocation{
			"PIA": standard, "NOR": standard, "VER": standard, "RUS": standard,
			"ANT": standard, "HAD": standard, "SAI": standard, "LAW": standard,
			"BEA": standard, "HAM": standard, "STR": standard, "COL": standard,
			"ALO": {Soft: 2, Medium: 3, Hard: 1},
			"GAS": {Soft: 0, Medium: 3, Hard: 1},
			"LEC": {Soft: 0, Medium: 3, Hard: 1},
			"HUL": {Soft: 3, Medium: 3, Hard: 1},
			"BOR": {Soft: 2, Medium: 3, Hard: 1},
			"ALB": {Soft: 2, Medium: 3, Hard: 1},
			"TSU": {Soft: 5, Medium: 3, Hard: 1},
			"OCO": {Soft: 2, Medium: 3, Hard: 1},
		},
		DefaultAllocation: Allocation{Soft: 2, Medium: 3, Hard: 2},
	}
}

// LoadRaceConfig reads a YAML race configuration and validates it.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadRaceConfig(path string) (RaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RaceConfig{}, fmt.Errorf("reading race config: %w", err)
	}
	var cfg RaceConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return RaceConfig{}, fmt.Errorf("parsing race config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return RaceConfig{}, fmt.Errorf("invalid race config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks parameter ranges.
func (c *RaceConfig) Validate() error {
	r := c.Race
	if r.Laps <= 0 {
		return fmt.Errorf("race.laps must be positive, got %d", r.Laps)
	}
	if r.MinStint < 1 || r.MaxStint < r.MinStint {
		return fmt.Errorf("stint bounds must satisfy 1 <= min_stint <= max_stint, got [%d, %d]", r.MinStint, r.MaxStint)
	}
	if r.MinCompounds < 1 || r.MinCompounds > len(AllCompounds) {
		return fmt.Errorf("race.min_compounds must be in [1, %d], got %d", len(AllCompounds), r.MinCompounds)
	}
	for _, m := range r.MandatoryCompounds {
		if !m.IsValid() {
			return fmt.Errorf("race.mandatory_compounds: unknown compound %q", m)
		}
	}
	for name, v := range map[string]float64{
		"pit.loss_mean": c.Pit.LossMean, "pit.loss_std": c.Pit.LossStd, "pit.loss_floor": c.Pit.LossFloor,
		"fuel.load_kg": c.Fuel.LoadKg, "fuel.effect_per_kg": c.Fuel.EffectPerKg,
		"fuel.consumption_per_lap": c.Fuel.ConsumptionPerLap, "lap_noise_std": c.LapNoiseStd,
		"drs.gain_std": c.DRS.GainStd, "drs.median_gain": c.DRS.MedianGain, "drs.min_gain": c.DRS.MinGain,
	} {
		if err := validateFiniteNonNegative(name, v); err != nil {
			return err
		}
	}
	for name, v := range map[string]float64{
		"pit.sc_factor": c.Pit.SCFactor, "pit.vsc_factor": c.Pit.VSCFactor,
		"grid.default_team_factor": c.Grid.DefaultTeamFactor,
	} {
		if err := validateFinitePositive(name, v); err != nil {
			return err
		}
	}
	for grid, f := range c.Grid.TeamFactors {
		if err := validateFinitePositive(fmt.Sprintf("grid.team_factors[%d]", grid), f); err != nil {
			return err
		}
	}
	for name, p := range map[string]float64{
		"safety_car.probability": c.SafetyCar.Probability, "virtual_safety_car.probability": c.VirtualSafetyCar.Probability,
		"drs.usage_probability": c.DRS.UsageProbability, "driver_error.probability": c.DriverError.Probability,
	} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, p)
		}
	}
	if err := c.SafetyCar.validate("safety_car", r.Laps); err != nil {
		return err
	}
	if err := c.VirtualSafetyCar.validate("virtual_safety_car", r.Laps); err != nil {
		return err
	}
	if c.DriverError.PenaltyMax < c.DriverError.PenaltyMin {
		return fmt.Errorf("driver_error penalty range inverted: [%f, %f]", c.DriverError.PenaltyMin, c.DriverError.PenaltyMax)
	}
	if len(c.Pit.PositionDeltas) == 0 || len(c.Pit.PositionDeltas) != len(c.Pit.PositionWeights) {
		return fmt.Errorf("pit.position_deltas and pit.position_weights must be non-empty and equal length, got %d and %d",
			len(c.Pit.PositionDeltas), len(c.Pit.PositionWeights))
	}
	sum := 0.0
	for _, w := range c.Pit.PositionWeights {
		if w < 0 {
			return fmt.Errorf("pit.position_weights must be non-negative, got %f", w)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("pit.position_weights must sum to a positive value")
	}
	if c.Grid.MaxPosition < 1 {
		return fmt.Errorf("grid.max_position must be positive, got %d", c.Grid.MaxPosition)
	}
	if len(c.Grid.PositionPenalties) == 0 {
		return fmt.Errorf("grid.position_penalties must not be empty")
	}
	for driver, a := range c.Allocations {
		if err := a.validate(fmt.Sprintf("allocations.%s", driver)); err != nil {
			return err
		}
	}
	return c.DefaultAllocation.validate("default_allocation")
}

func (a Allocation) validate(prefix string) error {
	for comp, n := range a {
		if !comp.IsValid() {
			return fmt.Errorf("%s: unknown compound %q", prefix, comp)
		}
		if n < 0 {
			return fmt.Errorf("%s: %s count must be non-negative, got %d", prefix, comp, n)
		}
	}
	return nil
}

func (n NeutralisationConfig) validate(prefix string, laps int) error {
	if n.Probability == 0 {
		return nil
	}
	if n.StartMin < 1 || laps-n.StartTailMargin < n.StartMin {
		return fmt.Errorf("%s start window [%d, %d] is empty", prefix, n.StartMin, laps-n.StartTailMargin)
	}
	if n.DurationMin < 1 || n.DurationMax < n.DurationMin {
		return fmt.Errorf("%s duration range [%d, %d] is invalid", prefix, n.DurationMin, n.DurationMax)
	}
	return validateFinitePositive(prefix+".lap_factor", n.LapFactor)
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, val)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
		return fmt.Errorf("%s must be a positive finite number, got %f", name, val)
	}
	return nil
}

// FuelPerLap returns the configured consumption, deriving load/laps when unset.
func (c *RaceConfig) FuelPerLap() float64 {
	if c.Fuel.ConsumptionPerLap > 0 {
		return c.Fuel.ConsumptionPerLap
	}
	return c.Fuel.LoadKg / float64(c.Race.Laps)
}

// TeamFactor returns the multiplicative car-performance factor for a grid slot.
func (c *RaceConfig) TeamFactor(grid int) float64 {
	if f, ok := c.Grid.TeamFactors[grid]; ok {
		return f
	}
	return c.Grid.DefaultTeamFactor
}

// PositionPenalty returns the dirty-air penalty for a running position.
// Positions are clamped to the table's range.
func (c *RaceConfig) PositionPenalty(position int) float64 {
	n := len(c.Grid.PositionPenalties)
	if n == 0 {
		return c.Grid.DefaultPositionPenalty
	}
	return c.Grid.PositionPenalties[ClampInt(position, 1, n)-1]
}

// DriverFor returns the driver starting from a grid slot, or "" if unmapped.
func (c *RaceConfig) DriverFor(grid int) string {
	return c.Grid.Drivers[grid]
}

// AllocationFor resolves a driver's tire allocation, falling back to DefaultAllocation.
func (c *RaceConfig) AllocationFor(driver string) Allocation {
	if a, ok := c.Allocations[driver]; ok {
		return a
	}
	logrus.Warnf("no tire allocation for driver %q; using default %v", driver, c.DefaultAllocation)
	return c.DefaultAllocation
}

// Rules assembles the StrategyRules for a driver.
func (c *RaceConfig) Rules(driver string) StrategyRules {
	return StrategyRules{
		RaceLaps:     c.Race.Laps,
		MinStint:     c.Race.MinStint,
		MaxStint:     c.Race.MaxStint,
		MinCompounds: c.Race.MinCompounds,
		Mandatory:    c.Race.MandatoryCompounds,
		Allocation:   c.AllocationFor(driver),
	}
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
