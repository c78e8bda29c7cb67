package field

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/grid"
)

// SubstrateConfig holds the parameters of the ambient background layer.
// Two named presets exist (see config.Presets): "ambient" carries the
// ecosystem-loop constants, "listening" the standalone-medium constants.
type SubstrateConfig struct {
	Size            int     `yaml:"size"`
	Baseline        float64 `yaml:"baseline"`
	Sigma           float64 `yaml:"sigma"`
	BlendRaw        float64 `yaml:"blend_raw"`
	BlendSmooth     float64 `yaml:"blend_smooth"`
	CoupleThreshold float64 `yaml:"couple_threshold"`
	CoupleGain      float64 `yaml:"couple_gain"`
	Decay           float64 `yaml:"decay"`
	NoiseStd        float64 `yaml:"noise_std"`
	ClampLow        float64 `yaml:"clamp_low"`
	ClampHigh       float64 `yaml:"clamp_high"`
	InitStd         float64 `yaml:"init_std"`
	InitLow         float64 `yaml:"init_low"`
	InitHigh        float64 `yaml:"init_high"`
	ListenThreshold float64 `yaml:"listen_threshold"`
}

// AmbientSubstrateConfig returns the constants of the integrated
// ecosystem loop.
func AmbientSubstrateConfig(size int) SubstrateConfig {
	return SubstrateConfig{
		Size:            size,
		Baseline:        0.00035,
		Sigma:           0.11,
		BlendRaw:        0.85,
		BlendSmooth:     0.15,
		CoupleThreshold: 0.58,
		CoupleGain:      0.0032,
		Decay:           0.993,
		NoiseStd:        0.0018,
		ClampLow:        -0.09,
		ClampHigh:       0.28,
		InitStd:         0.005,
		InitLow:         -0.06,
		InitHigh:        0.12,
		ListenThreshold: 0.04,
	}
}

// ListeningSubstrateConfig returns the constants of the standalone
// medium variant: wider bounds, slower decay, stronger coupling.
func ListeningSubstrateConfig(size int) SubstrateConfig {
	return SubstrateConfig{
		Size:            size,
		Baseline:        0.0006,
		Sigma:           0.14,
		BlendRaw:        0.82,
		BlendSmooth:     0.18,
		CoupleThreshold: 0.65,
		CoupleGain:      0.006,
		Decay:           0.992,
		NoiseStd:        0.0035,
		ClampLow:        -0.18,
		ClampHigh:       0.42,
		InitStd:         0.008,
		InitLow:         -0.12,
		InitHigh:        0.25,
		ListenThreshold: 0.04,
	}
}

func (c SubstrateConfig) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, c.Size)
	}
	if c.ClampLow >= c.ClampHigh {
		return fmt.Errorf("%w: clamp bounds [%g, %g] inverted", ErrInvalidConfig, c.ClampLow, c.ClampHigh)
	}
	if c.Decay <= 0 || c.Decay > 1 {
		return fmt.Errorf("%w: decay %g outside (0, 1]", ErrInvalidConfig, c.Decay)
	}
	if c.Sigma < 0 || c.NoiseStd < 0 {
		return fmt.Errorf("%w: sigma and noise_std must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Substrate is the low-amplitude, slowly diffusing background layer.
type Substrate struct {
	cfg SubstrateConfig
	g   *grid.Grid
	rng grid.Rand
}

func NewSubstrate(cfg SubstrateConfig, rng grid.Rand) (*Substrate, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	g := grid.NewNormal(cfg.Size, cfg.InitStd, rng)
	g.Clamp(cfg.InitLow, cfg.InitHigh)

	return &Substrate{cfg: cfg, g: g, rng: rng}, nil
}

// Grid exposes the live substrate grid. The orchestrator is permitted to
// write feedback ripples into it between steps; everyone else reads.
func (s *Substrate) Grid() *grid.Grid { return s.g }

func (s *Substrate) Config() SubstrateConfig { return s.cfg }

// Step advances the layer by one tick: baseline drive, blur-and-blend
// diffusion, threshold-gated perturbation coupling, decay, noise, clamp.
// A nil perturbation means no external input this step; a non-nil one
// must match the grid's shape (the pulse generator guarantees this).
func (s *Substrate) Step(perturbation *grid.Grid) {
	s.g.AddScalar(s.cfg.Baseline)

	smoothed := s.g.Blur(s.cfg.Sigma)
	s.g.Blend(smoothed, s.cfg.BlendRaw, s.cfg.BlendSmooth)

	if perturbation != nil && perturbation.N == s.g.N {
		s.couple(perturbation)
	}

	s.g.Scale(s.cfg.Decay)
	s.g.AddNoise(s.cfg.NoiseStd, s.rng)
	s.g.Clamp(s.cfg.ClampLow, s.cfg.ClampHigh)
}

// couple adds a small multiple of the perturbation at cells where it
// exceeds the coupling threshold. Sub-threshold cells are untouched.
func (s *Substrate) couple(p *grid.Grid) {
	for i, v := range p.Cells {
		if v > s.cfg.CoupleThreshold {
			s.g.Cells[i] += s.cfg.CoupleGain * v
		}
	}
}

// FeelResonance applies the threshold-and-add coupling rule for a
// coherence map that may arrive at a different resolution. The map is
// bilinearly resampled onto the substrate's shape first. This is the
// whole operation: no diffusion, decay, or noise happens here.
func (s *Substrate) FeelResonance(coherence *grid.Grid) error {
	if coherence == nil || coherence.N <= 0 {
		return ErrShapeMismatch
	}

	resampled, err := coherence.Resample(s.g.N)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	s.couple(resampled)
	return nil
}

// GlobalListening reports the fraction of cells above the listening
// threshold, a coarse scalar for how awake the layer currently is.
func (s *Substrate) GlobalListening() float64 {
	return s.g.Fraction(s.cfg.ListenThreshold)
}
