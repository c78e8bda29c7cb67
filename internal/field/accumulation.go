package field

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/grid"
)

// Manifestation is a discrete point event emitted when a field cell
// exceeds threshold and wins its Bernoulli trial. Records are immutable
// and Seq equals the record's position in the append-only sequence.
type Manifestation struct {
	Seq      int     `json:"seq"`
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	Strength float64 `json:"strength"`
}

// AccumulationConfig holds the parameters of the overflow layer.
type AccumulationConfig struct {
	Size          int     `yaml:"size"`
	AccumOffset   float64 `yaml:"accum_offset"`
	OverflowCap   float64 `yaml:"overflow_cap"`
	AccumGain     float64 `yaml:"accum_gain"`
	Baseline      float64 `yaml:"baseline"`
	Sigma         float64 `yaml:"sigma"`
	BlendRaw      float64 `yaml:"blend_raw"`
	BlendSmooth   float64 `yaml:"blend_smooth"`
	Decay         float64 `yaml:"decay"`
	EmitThreshold float64 `yaml:"emit_threshold"`
	ProbGain      float64 `yaml:"prob_gain"`
	ProbCap       float64 `yaml:"prob_cap"`
	StrengthGain  float64 `yaml:"strength_gain"`
	Release       float64 `yaml:"release"`
	InitStd       float64 `yaml:"init_std"`
}

func DefaultAccumulationConfig(size int) AccumulationConfig {
	return AccumulationConfig{
		Size:          size,
		AccumOffset:   0.42,
		OverflowCap:   0.5,
		AccumGain:     0.007,
		Baseline:      0.00018,
		Sigma:         0.08,
		BlendRaw:      0.89,
		BlendSmooth:   0.11,
		Decay:         0.988,
		EmitThreshold: 0.68,
		ProbGain:      4.2,
		ProbCap:       0.82,
		StrengthGain:  0.09,
		Release:       0.6,
		InitStd:       0.003,
	}
}

func (c AccumulationConfig) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, c.Size)
	}
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("%w: decay %g outside (0, 1]", ErrInvalidConfig, c.Decay)
	}
	if c.ProbCap <= 0 || c.ProbCap > 1 {
		return fmt.Errorf("%w: prob_cap %g outside (0, 1]", ErrInvalidConfig, c.ProbCap)
	}
	if c.Release < 0 || c.Release > 1 {
		return fmt.Errorf("%w: release %g outside [0, 1]", ErrInvalidConfig, c.Release)
	}
	return nil
}

// Accumulation collects overflow from the response layer, diffuses
// slowly, and stochastically emits manifestations when locally
// over-threshold.
type Accumulation struct {
	cfg            AccumulationConfig
	g              *grid.Grid
	rng            grid.Rand
	manifestations []Manifestation
}

func NewAccumulation(cfg AccumulationConfig, rng grid.Rand) (*Accumulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var g *grid.Grid
	if cfg.InitStd > 0 {
		g = grid.NewNormal(cfg.Size, cfg.InitStd, rng)
	} else {
		g = grid.New(cfg.Size)
	}

	return &Accumulation{
		cfg:            cfg,
		g:              g,
		rng:            rng,
		manifestations: make([]Manifestation, 0),
	}, nil
}

func (a *Accumulation) Grid() *grid.Grid           { return a.g }
func (a *Accumulation) Config() AccumulationConfig { return a.cfg }

// Manifestations returns the full append-only event sequence. Callers
// must not mutate it.
func (a *Accumulation) Manifestations() []Manifestation { return a.manifestations }

// Accumulate is the only external write path into the field: it adds a
// small gain times the clamped overflow of the response layer.
func (a *Accumulation) Accumulate(response *grid.Grid) {
	for i, v := range response.Cells {
		overflow := v - a.cfg.AccumOffset
		if overflow < 0 {
			overflow = 0
		} else if overflow > a.cfg.OverflowCap {
			overflow = a.cfg.OverflowCap
		}
		a.g.Cells[i] += a.cfg.AccumGain * overflow
	}
}

// Step advances the field one tick and returns the manifestations
// emitted during it, in emission order.
//
// Emission is evaluated against a snapshot taken after diffusion and
// decay but before any release: each qualifying cell sees the grid as it
// stood at the start of emission, never a sibling's partial update.
func (a *Accumulation) Step() []Manifestation {
	a.g.AddScalar(a.cfg.Baseline)

	smoothed := a.g.Blur(a.cfg.Sigma)
	a.g.Blend(smoothed, a.cfg.BlendRaw, a.cfg.BlendSmooth)

	a.g.Scale(a.cfg.Decay)

	snapshot := a.g.Clone()
	var emitted []Manifestation

	n := a.g.N
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := snapshot.At(row, col)
			if v <= a.cfg.EmitThreshold {
				continue
			}

			prob := (v - a.cfg.EmitThreshold) * a.cfg.ProbGain
			if prob > a.cfg.ProbCap {
				prob = a.cfg.ProbCap
			}
			if a.rng.Float64() >= prob {
				continue
			}

			m := Manifestation{
				Seq:      len(a.manifestations),
				Row:      row,
				Col:      col,
				Strength: a.cfg.StrengthGain * prob,
			}
			a.manifestations = append(a.manifestations, m)
			emitted = append(emitted, m)

			// release relieves local tension so the same cell does
			// not re-trigger every step
			a.g.AddAt(row, col, -m.Strength*a.cfg.Release)
		}
	}

	return emitted
}
