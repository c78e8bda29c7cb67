package field

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/grid"
)

// ResponseConfig holds the parameters of the coherence layer.
type ResponseConfig struct {
	Size     int     `yaml:"size"`
	Offset   float64 `yaml:"offset"`
	Gain     float64 `yaml:"gain"`
	BonusCap float64 `yaml:"bonus_cap"`
	Relax    float64 `yaml:"relax"`
	Ceiling  float64 `yaml:"ceiling"`
}

func DefaultResponseConfig(size int) ResponseConfig {
	return ResponseConfig{
		Size:     size,
		Offset:   0.06,
		Gain:     6.5,
		BonusCap: 0.022,
		Relax:    0.012,
		Ceiling:  0.92,
	}
}

func (c ResponseConfig) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, c.Size)
	}
	if c.Ceiling <= 0 {
		return fmt.Errorf("%w: ceiling %g must be positive", ErrInvalidConfig, c.Ceiling)
	}
	if c.Relax < 0 || c.Relax > 1 {
		return fmt.Errorf("%w: relax %g outside [0, 1]", ErrInvalidConfig, c.Relax)
	}
	return nil
}

// Response accumulates coherence driven by the substrate and relaxes
// toward zero. It is a purely derived, damped transform: no events, no
// randomness, no output beyond its own grid.
type Response struct {
	cfg ResponseConfig
	g   *grid.Grid
}

func NewResponse(cfg ResponseConfig) (*Response, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Response{cfg: cfg, g: grid.New(cfg.Size)}, nil
}

func (r *Response) Grid() *grid.Grid       { return r.g }
func (r *Response) Config() ResponseConfig { return r.cfg }

// Update adds a clamped linear bonus from cells where the substrate
// exceeds the offset, then relaxes every cell a fixed fraction of the
// way back toward zero. Relaxation runs every step, bonus or not.
func (r *Response) Update(substrate *grid.Grid) {
	for i, m := range substrate.Cells {
		bonus := (m - r.cfg.Offset) * r.cfg.Gain
		if bonus < 0 {
			bonus = 0
		} else if bonus > r.cfg.BonusCap {
			bonus = r.cfg.BonusCap
		}
		r.g.Cells[i] += bonus
	}

	for i := range r.g.Cells {
		r.g.Cells[i] += r.cfg.Relax * (0 - r.g.Cells[i])
	}

	r.g.Clamp(0, r.cfg.Ceiling)
}
