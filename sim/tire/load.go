package tire

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pitwall-sim/strategy-sim/sim"
)

// ModelSpec is one compound entry in a models file, as written by the
// external fitting pipeline.
type ModelSpec struct {
	Type         Kind          `yaml:"type"`
	Alpha        *float64      `yaml:"alpha,omitempty"`
	Beta         *float64      `yaml:"beta,omitempty"`
	AnchorOffset *float64      `yaml:"anchor_offset,omitempty"` // anchored only: alpha = MEDIUM alpha + offset
	Samples      []ParamSample `yaml:"samples,omitempty"`       // bayesian only
}

// ModelsFile is the top-level models YAML.
type ModelsFile struct {
	Compounds map[sim.Compound]ModelSpec `yaml:"compounds"`
}

// LoadModels reads a models file and builds the model set.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadModels(path string) (Models, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compound models: %w", err)
	}
	var f ModelsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing compound models: %w", err)
	}
	ms, err := Build(f.Compounds)
	if err != nil {
		return nil, fmt.Errorf("building compound models from %s: %w", path, err)
	}
	return ms, nil
}

// Build turns specs into models. MEDIUM is built first because anchored
// compounds derive their alpha from it.
func Build(specs map[sim.Compound]ModelSpec) (Models, error) {
	medSpec, ok := specs[sim.Medium]
	if !ok {
		return nil, ErrMissingCompound
	}
	if medSpec.Type == KindAnchored && medSpec.Alpha == nil {
		return nil, fmt.Errorf("MEDIUM: anchored model needs an explicit alpha")
	}
	medium, err := buildOne(sim.Medium, medSpec, nil)
	if err != nil {
		return nil, err
	}
	out := map[sim.Compound]Model{sim.Medium: medium}

	compounds := make([]sim.Compound, 0, len(specs))
	for c := range specs {
		if c != sim.Medium {
			compounds = append(compounds, c)
		}
	}
	sort.Slice(compounds, func(i, j int) bool { return compounds[i] < compounds[j] })
	for _, c := range compounds {
		if !c.IsValid() {
			return nil, fmt.Errorf("unknown compound %q", c)
		}
		m, err := buildOne(c, specs[c], medium)
		if err != nil {
			return nil, err
		}
		out[c] = m
	}
	for c, m := range out {
		logrus.Debugf("compound model %s: kind=%s alpha=%.3f beta=%.4f", c, m.Kind(), m.Alpha(), m.Beta())
	}
	return NewModels(out)
}

func buildOne(c sim.Compound, spec ModelSpec, anchor Model) (Model, error) {
	prefix := string(c)
	for name, v := range map[string]*float64{"alpha": spec.Alpha, "beta": spec.Beta, "anchor_offset": spec.AnchorOffset} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return nil, fmt.Errorf("%s.%s must be a finite number, got %f", prefix, name, *v)
		}
	}
	switch spec.Type {
	case KindDefault, KindLinear:
		if spec.Alpha == nil || spec.Beta == nil {
			return nil, fmt.Errorf("%s: %s model requires alpha and beta", prefix, spec.Type)
		}
		return NewPointModel(spec.Type, *spec.Alpha, *spec.Beta)

	case KindAnchored:
		if spec.Beta == nil {
			return nil, fmt.Errorf("%s: anchored model requires beta", prefix)
		}
		if spec.Alpha != nil {
			return NewPointModel(KindAnchored, *spec.Alpha, *spec.Beta)
		}
		offset, ok := AnchorOffsets[c]
		if spec.AnchorOffset != nil {
			offset, ok = *spec.AnchorOffset, true
		}
		if !ok || anchor == nil {
			return nil, fmt.Errorf("%s: anchored model requires alpha or anchor_offset", prefix)
		}
		return Anchor(anchor, offset, *spec.Beta), nil

	case KindBayesian:
		m, err := NewPosteriorModel(spec.Samples)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", prefix, err)
		}
		return m, nil

	default:
		return nil, fmt.Errorf("%s: unknown model type %q; valid: default, linear, bayesian, anchored", prefix, spec.Type)
	}
}
