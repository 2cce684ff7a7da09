// Package sim provides the core data model for the tire-strategy Monte Carlo evaluator.
//
// # Reading Guide
//
// Start with these files to understand the model:
//   - strategy_types.go: Compound, Stint and Strategy, with constructor-enforced invariants
//   - config.go: RaceConfig, the immutable configuration every component receives
//   - rng.go: SimulationKey and per-subsystem seed derivation
//
// # Architecture
//
// The sim package holds shared types; the algorithms live in sub-packages:
//   - sim/tire/: compound models (point estimate or posterior samples)
//   - sim/strategy/: enumeration of the feasible strategy space
//   - sim/race/: safety-car sampling and the single-race lap loop
//   - sim/montecarlo/: repeated simulation, summary statistics and ranking
//   - sim/pit/: break-even pit thresholds and optimal pit-lap search
//
// Data flows strategy -> montecarlo (which drives race) -> ranking. The pit
// package runs independently and reads only compound models and race rules.
//
// No package in sim/ reads global random state: every stochastic call takes
// an explicit *rand.Rand derived from a SimulationKey.
package sim
