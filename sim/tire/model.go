// Package tire holds per-compound lap-time models.
//
// A model is a line: lap time = alpha + beta * lapInStint. How alpha and beta
// were obtained (defaults, regression, posterior sampling, anchoring to another
// compound) is recorded in Kind but never inspected by the simulator; it only
// checks whether a model also implements Sampler.
package tire

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// Kind records which fitting method produced a model.
type Kind string

const (
	KindDefault  Kind = "default"
	KindLinear   Kind = "linear"
	KindBayesian Kind = "bayesian"
	KindAnchored Kind = "anchored"
)

var validKinds = map[Kind]bool{KindDefault: true, KindLinear: true, KindBayesian: true, KindAnchored: true}

// ErrMissingCompound is returned when a model set lacks the MEDIUM fallback.
var ErrMissingCompound = errors.New("compound model set must include MEDIUM")

// Model is the common accessor every compound model provides.
type Model interface {
	Kind() Kind
	Alpha() float64 // lap time on lap 1 of a stint, seconds (before the beta term)
	Beta() float64  // seconds added per lap of tire age
}

// Sampler is implemented by models that carry parameter uncertainty.
type Sampler interface {
	// SampleParams draws one (alpha, beta) pair uniformly from the posterior set.
	SampleParams(rng *rand.Rand) (alpha, beta float64)
}

// ParamSample is one posterior draw.
type ParamSample struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
}

// PointModel is a model with a single (alpha, beta) estimate.
type PointModel struct {
	kind        Kind
	alpha, beta float64
}

// NewPointModel returns a point-estimate model. Bayesian models must use NewPosteriorModel.
func NewPointModel(kind Kind, alpha, beta float64) (*PointModel, error) {
	if !validKinds[kind] || kind == KindBayesian {
		return nil, fmt.Errorf("invalid point model kind %q", kind)
	}
	return &PointModel{kind: kind, alpha: alpha, beta: beta}, nil
}

func (m *PointModel) Kind() Kind { return m.kind }
func (m *PointModel) Alpha() float64 { return m.alpha }
func (m *PointModel) Beta() float64 { return m.beta }

// PosteriorModel is a bayesian fit: posterior means plus the raw sample set.
type PosteriorModel struct {
	alpha, beta float64
	samples     []ParamSample
}

// NewPosteriorModel builds a posterior model; the point estimate is the sample mean.
func NewPosteriorModel(samples []ParamSample) (*PosteriorModel, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("bayesian model requires at least one posterior sample")
	}
	var sa, sb float64
	for i, s := range samples {
		if !isFinite(s.Alpha) || !isFinite(s.Beta) {
			return nil, fmt.Errorf("posterior sample %d must be finite, got alpha=%f beta=%f", i, s.Alpha, s.Beta)
		}
		sa += s.Alpha
		sb += s.Beta
	}
	n := float64(len(samples))
	own := make([]ParamSample, len(samples))
	copy(own, samples)
	return &PosteriorModel{alpha: sa / n, beta: sb / n, samples: own}, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func (m *PosteriorModel) Kind() Kind { return KindBayesian }
func (m *PosteriorModel) Alpha() float64 { return m.alpha }
func (m *PosteriorModel) Beta() float64 { return m.beta }

// SampleParams implements Sampler.
func (m *PosteriorModel) SampleParams(rng *rand.Rand) (float64, float64) {
	s := m.samples[rng.Intn(len(m.samples))]
	return s.Alpha, s.Beta
}

// Len returns the posterior sample count.
func (m *PosteriorModel) Len() int { return len(m.samples) }

// Models maps each compound to its model. Read-only once built; safe for
// concurrent use by simulation workers.
type Models map[sim.Compound]Model

// NewModels validates a model set.
func NewModels(m map[sim.Compound]Model) (Models, error) {
	if m[sim.Medium] == nil {
		return nil, ErrMissingCompound
	}
	out := make(Models, len(m))
	for c, model := range m {
		if !c.IsValid() {
			return nil, fmt.Errorf("unknown compound %q in model set", c)
		}
		if model == nil {
			return nil, fmt.Errorf("nil model for compound %s", c)
		}
		out[c] = model
	}
	return out, nil
}

// Lookup returns the model for c, falling back to MEDIUM when absent.
func (ms Models) Lookup(c sim.Compound) Model {
	if m, ok := ms[c]; ok {
		return m
	}
	return ms[sim.Medium]
}

// LapTime is the point-estimate lap time on lapInStint.
func (ms Models) LapTime(c sim.Compound, lapInStint int) float64 {
	m := ms.Lookup(c)
	return m.Alpha() + m.Beta()*float64(lapInStint)
}

// SampleLapTime draws a lap time that carries model uncertainty: from one
// posterior sample when the model is a Sampler, otherwise the point estimate
// plus Gaussian noise with standard deviation noiseStd.
func (ms Models) SampleLapTime(c sim.Compound, lapInStint int, rng *rand.Rand, noiseStd float64) float64 {
	m := ms.Lookup(c)
	if s, ok := m.(Sampler); ok {
		alpha, beta := s.SampleParams(rng)
		return alpha + beta*float64(lapInStint)
	}
	return m.Alpha() + m.Beta()*float64(lapInStint) + rng.NormFloat64()*noiseStd
}

// Shape is a default offset from base pace and a default degradation rate.
type Shape struct {
	Offset          float64
	DegradationRate float64
}

// DefaultShapes are used when no session data is available.
var DefaultShapes = map[sim.Compound]Shape{
	sim.Soft:   {Offset: 0.0, DegradationRate: 0.12},
	sim.Medium: {Offset: 0.40, DegradationRate: 0.07},
	sim.Hard:   {Offset: 0.80, DegradationRate: 0.04},
}

// AnchorOffsets are the typical pace gaps to MEDIUM used when anchoring.
var AnchorOffsets = map[sim.Compound]float64{
	sim.Soft: -0.55,
	sim.Hard: 0.60,
}

// DefaultModels builds "default" models from the base pace.
func DefaultModels(basePace float64) Models {
	ms := make(Models, len(DefaultShapes))
	for c, s := range DefaultShapes {
		ms[c] = &PointModel{kind: KindDefault, alpha: basePace + s.Offset, beta: s.DegradationRate}
	}
	return ms
}

// Anchor derives a model whose alpha sits offset seconds from anchor's alpha.
func Anchor(anchor Model, offset, beta float64) *PointModel {
	return &PointModel{kind: KindAnchored, alpha: anchor.Alpha() + offset, beta: beta}
}
