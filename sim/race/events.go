package race

import (
	"math/rand"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// Window is an inclusive lap range. The zero Window is inactive.
type Window struct {
	Start int
	End   int
}

// Active reports whether the window covers any lap.
func (w Window) Active() bool { return w.Start > 0 && w.End >= w.Start }

// Contains reports whether lap falls inside the window.
func (w Window) Contains(lap int) bool {
	return w.Active() && lap >= w.Start && lap <= w.End
}

// Len returns the number of laps covered.
func (w Window) Len() int {
	if !w.Active() {
		return 0
	}
	return w.End - w.Start + 1
}

// Schedule holds the safety-car and virtual-safety-car windows of one race.
//
// The VSC window is only suppressed when its start lap equals the SC start
// lap; partially overlapping windows are kept as drawn, and overlapping laps
// are then treated as full safety car by the simulator.
type Schedule struct {
	SC  Window
	VSC Window
}

// UnderSC reports whether lap is run under full safety car.
func (s Schedule) UnderSC(lap int) bool { return s.SC.Contains(lap) }

// UnderVSC reports whether lap is run under virtual safety car.
func (s Schedule) UnderVSC(lap int) bool { return s.VSC.Contains(lap) }

// Neutralised reports whether either regime covers lap.
func (s Schedule) Neutralised(lap int) bool { return s.UnderSC(lap) || s.UnderVSC(lap) }

// SampleSchedule draws a fresh Schedule for one race.
func SampleSchedule(cfg *sim.RaceConfig, rng *rand.Rand) Schedule {
	var s Schedule
	laps := cfg.Race.Laps
	if rng.Float64() < cfg.SafetyCar.Probability {
		s.SC = sampleWindow(cfg.SafetyCar, laps, rng)
	}
	if rng.Float64() < cfg.VirtualSafetyCar.Probability {
		start := uniformInt(rng, cfg.VirtualSafetyCar.StartMin, laps-cfg.VirtualSafetyCar.StartTailMargin)
		if !s.SC.Active() || start != s.SC.Start {
			s.VSC = window(start, uniformInt(rng, cfg.VirtualSafetyCar.DurationMin, cfg.VirtualSafetyCar.DurationMax), laps)
		}
	}
	return s
}

func sampleWindow(n sim.NeutralisationConfig, laps int, rng *rand.Rand) Window {
	start := uniformInt(rng, n.StartMin, laps-n.StartTailMargin)
	return window(start, uniformInt(rng, n.DurationMin, n.DurationMax), laps)
}

// window clips [start, start+duration) to the race distance.
func window(start, duration, laps int) Window {
	end := start + duration - 1
	if end > laps {
		end = laps
	}
	return Window{Start: start, End: end}
}

// uniformInt draws an integer uniformly from [lo, hi].
func uniformInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
