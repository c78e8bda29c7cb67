package field

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/grid"
)

// PulseConfig holds the parameters of the stochastic perturbation source.
type PulseConfig struct {
	Size        int     `yaml:"size"`
	Probability float64 `yaml:"probability"`
	Margin      int     `yaml:"margin"`
	Radius      int     `yaml:"radius"`
	Base        float64 `yaml:"base"`
	JitterLow   float64 `yaml:"jitter_low"`
	JitterHigh  float64 `yaml:"jitter_high"`
}

func DefaultPulseConfig(size int) PulseConfig {
	return PulseConfig{
		Size:        size,
		Probability: 0.12,
		Margin:      40,
		Radius:      24,
		Base:        0.68,
		JitterLow:   -0.14,
		JitterHigh:  0.16,
	}
}

func (c PulseConfig) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, c.Size)
	}
	if c.Probability < 0 || c.Probability > 1 {
		return fmt.Errorf("%w: probability %g outside [0, 1]", ErrInvalidConfig, c.Probability)
	}
	if c.Probability > 0 && c.Size <= 2*c.Margin {
		return fmt.Errorf("%w: size %d leaves no room inside margin %d", ErrInvalidConfig, c.Size, c.Margin)
	}
	if c.JitterHigh < c.JitterLow {
		return fmt.Errorf("%w: jitter bounds [%g, %g] inverted", ErrInvalidConfig, c.JitterLow, c.JitterHigh)
	}
	return nil
}

// PulseGenerator produces rare, localized perturbation grids: at most
// one disc-shaped pulse per step, centered at least Margin cells from
// every edge.
type PulseGenerator struct {
	cfg PulseConfig
	rng grid.Rand
}

func NewPulseGenerator(cfg PulseConfig, rng grid.Rand) (*PulseGenerator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &PulseGenerator{cfg: cfg, rng: rng}, nil
}

func (p *PulseGenerator) Config() PulseConfig { return p.cfg }

// Next returns the perturbation grid for one step: all zeros with
// probability 1-p, otherwise a single jittered disc at base level.
func (p *PulseGenerator) Next() *grid.Grid {
	pulse := grid.New(p.cfg.Size)
	if p.rng.Float64() >= p.cfg.Probability {
		return pulse
	}

	span := p.cfg.Size - 2*p.cfg.Margin
	cr := p.cfg.Margin + p.rng.Intn(span)
	cc := p.cfg.Margin + p.rng.Intn(span)

	r2 := p.cfg.Radius * p.cfg.Radius
	jitterSpan := p.cfg.JitterHigh - p.cfg.JitterLow

	for row := 0; row < p.cfg.Size; row++ {
		for col := 0; col < p.cfg.Size; col++ {
			dr := row - cr
			dc := col - cc
			if dr*dr+dc*dc < r2 {
				pulse.Set(row, col, p.cfg.Base+p.cfg.JitterLow+p.rng.Float64()*jitterSpan)
			}
		}
	}

	return pulse
}
