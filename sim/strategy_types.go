package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// Compound is a tire hardness class.
type Compound string

const (
	Soft   Compound = "SOFT"
	Medium Compound = "MEDIUM"
	Hard   Compound = "HARD"
)

// AllCompounds lists every compound from softest to hardest.
// Strategy enumeration iterates in this order.
var AllCompounds = []Compound{Soft, Medium, Hard}

var validCompounds = map[Compound]bool{Soft: true, Medium: true, Hard: true}

// IsValid reports whether c is a recognized compound.
func (c Compound) IsValid() bool {
	return validCompounds[c]
}

// Initial returns the one-letter abbreviation used in strategy names.
func (c Compound) Initial() string {
	if c == "" {
		return "?"
	}
	return string(c[0])
}

// ParseCompound converts a case-insensitive compound name.
func ParseCompound(name string) (Compound, error) {
	c := Compound(strings.ToUpper(strings.TrimSpace(name)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown compound %q; valid: SOFT, MEDIUM, HARD", name)
	}
	return c, nil
}

// StintsPerStrategy is the fixed number of stints in every plan (two stops).
const StintsPerStrategy = 3

// Stint is a contiguous block of laps on one compound.
type Stint struct {
	Compound Compound
	Laps     int
}

// NewStint validates and returns a Stint.
func NewStint(c Compound, laps int) (Stint, error) {
	if !c.IsValid() {
		return Stint{}, fmt.Errorf("unknown compound %q", c)
	}
	if laps < 1 {
		return Stint{}, fmt.Errorf("stint laps must be positive, got %d", laps)
	}
	return Stint{Compound: c, Laps: laps}, nil
}

// Strategy is an ordered, immutable sequence of stints.
type Strategy struct {
	stints [StintsPerStrategy]Stint
	name   string
}

// NewStrategy builds a Strategy from exactly StintsPerStrategy valid stints.
// Race-level rules (distance, bounds, allocation) are checked by Validate.
func NewStrategy(stints ...Stint) (Strategy, error) {
	if len(stints) != StintsPerStrategy {
		return Strategy{}, fmt.Errorf("strategy needs exactly %d stints, got %d", StintsPerStrategy, len(stints))
	}
	var s Strategy
	parts := make([]string, 0, len(stints))
	for i, st := range stints {
		if _, err := NewStint(st.Compound, st.Laps); err != nil {
			return Strategy{}, fmt.Errorf("stint %d: %w", i+1, err)
		}
		s.stints[i] = st
		parts = append(parts, st.Compound.Initial()+strconv.Itoa(st.Laps))
	}
	s.name = strings.Join(parts, "-")
	return s, nil
}

// ParseStrategy is the inverse of Name: "S7-M25-H25" -> three stints.
func ParseStrategy(name string) (Strategy, error) {
	parts := strings.Split(strings.TrimSpace(name), "-")
	stints := make([]Stint, 0, len(parts))
	for _, p := range parts {
		if len(p) < 2 {
			return Strategy{}, fmt.Errorf("malformed stint %q in %q", p, name)
		}
		c, ok := compoundByInitial[strings.ToUpper(p[:1])]
		if !ok {
			return Strategy{}, fmt.Errorf("unknown compound initial %q in %q", p[:1], name)
		}
		laps, err := strconv.Atoi(p[1:])
		if err != nil {
			return Strategy{}, fmt.Errorf("malformed stint length %q in %q", p[1:], name)
		}
		stints = append(stints, Stint{Compound: c, Laps: laps})
	}
	return NewStrategy(stints...)
}

var compoundByInitial = map[string]Compound{"S": Soft, "M": Medium, "H": Hard}

// Name encodes compound initials and stint lengths, e.g. "S7-M25-H25".
func (s Strategy) Name() string { return s.name }

func (s Strategy) String() string { return s.name }

// Stints returns a copy of the stints in race order.
func (s Strategy) Stints() []Stint {
	out := make([]Stint, len(s.stints))
	copy(out, s.stints[:])
	return out
}

// Pattern returns the compound sequence ignoring lengths, e.g. "S-M-H".
func (s Strategy) Pattern() string {
	return PatternKey(s.stints[0].Compound, s.stints[1].Compound, s.stints[2].Compound)
}

// PatternKey joins compound initials with dashes.
func PatternKey(compounds ...Compound) string {
	parts := make([]string, len(compounds))
	for i, c := range compounds {
		parts[i] = c.Initial()
	}
	return strings.Join(parts, "-")
}

// TotalLaps sums the stint lengths.
func (s Strategy) TotalLaps() int {
	total := 0
	for _, st := range s.stints {
		total += st.Laps
	}
	return total
}

// CompoundCounts returns how many stints use each compound.
func (s Strategy) CompoundCounts() map[Compound]int {
	counts := make(map[Compound]int, len(AllCompounds))
	for _, st := range s.stints {
		counts[st.Compound]++
	}
	return counts
}

// StrategyRules are the race-level constraints a strategy must satisfy.
type StrategyRules struct {
	RaceLaps     int
	MinStint     int
	MaxStint     int
	MinCompounds int
	Mandatory    []Compound
	Allocation   Allocation
}

// Validate returns the first rule the strategy violates, or nil.
func (s Strategy) Validate(r StrategyRules) error {
	if total := s.TotalLaps(); total != r.RaceLaps {
		return fmt.Errorf("%s: stint laps sum to %d, race is %d", s.name, total, r.RaceLaps)
	}
	for i, st := range s.stints {
		if st.Laps < r.MinStint || st.Laps > r.MaxStint {
			return fmt.Errorf("%s: stint %d length %d outside [%d, %d]", s.name, i+1, st.Laps, r.MinStint, r.MaxStint)
		}
	}
	counts := s.CompoundCounts()
	if len(counts) < r.MinCompounds {
		return fmt.Errorf("%s: uses %d distinct compounds, need %d", s.name, len(counts), r.MinCompounds)
	}
	for _, m := range r.Mandatory {
		if counts[m] == 0 {
			return fmt.Errorf("%s: mandatory compound %s not used", s.name, m)
		}
	}
	if r.Allocation != nil {
		for c, n := range counts {
			if n > r.Allocation[c] {
				return fmt.Errorf("%s: uses %s %d times, allocation is %d", s.name, c, n, r.Allocation[c])
			}
		}
	}
	return nil
}

// Allocation is the number of tire sets a driver may use per compound.
type Allocation map[Compound]int
