package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible Monte Carlo sweep.
// Two sweeps with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results, regardless of worker count.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystems ===

// SubsystemUnit returns the subsystem name for one (strategy, grid position)
// unit of Monte Carlo work.
func SubsystemUnit(strategyName string, grid int) string {
	return fmt.Sprintf("unit_%s_p%d", strategyName, grid)
}

// RNG returns a freshly seeded generator for the named subsystem.
//
// Derivation: seed = key XOR fnv1a64(name). Each call returns a new *rand.Rand
// positioned at the start of the stream, so callers on different goroutines
// never share state.
func (k SimulationKey) RNG(name string) *rand.Rand {
	return rand.New(rand.NewSource(int64(k) ^ fnv1a64(name)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
