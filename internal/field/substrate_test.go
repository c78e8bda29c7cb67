package field

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/fieldsim/internal/grid"
)

// stubRand forces every uniform draw to a fixed value. NormFloat64
// returns zero so noise terms vanish.
type stubRand struct{ uniform float64 }

func (s stubRand) Float64() float64     { return s.uniform }
func (s stubRand) NormFloat64() float64 { return 0 }
func (s stubRand) Intn(n int) int       { return 0 }

// quietConfig isolates the baseline/decay arithmetic: no noise, no
// diffusion, no initial state.
func quietConfig(size int) SubstrateConfig {
	cfg := AmbientSubstrateConfig(size)
	cfg.NoiseStd = 0
	cfg.Sigma = 0
	cfg.InitStd = 0
	cfg.BlendRaw = 1
	cfg.BlendSmooth = 0
	return cfg
}

func TestNewSubstrate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SubstrateConfig)
	}{
		{"zero size", func(c *SubstrateConfig) { c.Size = 0 }},
		{"negative size", func(c *SubstrateConfig) { c.Size = -3 }},
		{"inverted clamp", func(c *SubstrateConfig) { c.ClampLow, c.ClampHigh = 0.5, -0.5 }},
		{"zero decay", func(c *SubstrateConfig) { c.Decay = 0 }},
		{"decay above one", func(c *SubstrateConfig) { c.Decay = 1.1 }},
		{"negative sigma", func(c *SubstrateConfig) { c.Sigma = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AmbientSubstrateConfig(16)
			tt.mutate(&cfg)
			if _, err := NewSubstrate(cfg, rand.New(rand.NewSource(1))); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSubstrate_BaselineArithmetic(t *testing.T) {
	cfg := quietConfig(10)
	cfg.Baseline = 0.01
	cfg.Decay = 1.0
	cfg.ClampLow, cfg.ClampHigh = -1, 1

	s, err := NewSubstrate(cfg, stubRand{})
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		s.Step(nil)
	}

	for i, v := range s.Grid().Cells {
		if math.Abs(v-0.05) > 1e-12 {
			t.Fatalf("cell %d = %v, want 0.05 after 5 baseline-only steps", i, v)
		}
	}
}

func TestSubstrate_SteadyDecayConvergence(t *testing.T) {
	cfg := quietConfig(8)
	cfg.Baseline = 0.01
	cfg.Decay = 0.9
	cfg.ClampLow, cfg.ClampHigh = -1, 1

	s, err := NewSubstrate(cfg, stubRand{})
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	for i := 0; i < 300; i++ {
		s.Step(nil)
	}

	// fixed point of x -> (x + b) * d
	want := cfg.Baseline * cfg.Decay / (1 - cfg.Decay)
	if got := s.Grid().Mean(); math.Abs(got-want) > 1e-9 {
		t.Errorf("mean = %v, want fixed point %v", got, want)
	}
}

func TestSubstrate_ThresholdGating(t *testing.T) {
	cfg := quietConfig(10)
	cfg.Baseline = 0
	cfg.Decay = 1.0
	cfg.ClampLow, cfg.ClampHigh = -1, 1

	s, err := NewSubstrate(cfg, stubRand{})
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	pert := grid.New(10)
	pert.Set(2, 2, 0.40) // below threshold 0.58
	pert.Set(7, 7, 0.90)

	s.Step(pert)

	if got := s.Grid().At(2, 2); got != 0 {
		t.Errorf("sub-threshold cell moved to %v, want 0", got)
	}

	want := cfg.CoupleGain * 0.90
	if got := s.Grid().At(7, 7); math.Abs(got-want) > 1e-12 {
		t.Errorf("over-threshold cell = %v, want %v", got, want)
	}
}

func TestSubstrate_Bounded(t *testing.T) {
	cfg := AmbientSubstrateConfig(32)
	rng := rand.New(rand.NewSource(99))

	s, err := NewSubstrate(cfg, rng)
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	pert := grid.New(32)
	pert.Fill(0.95) // hammer every cell, every step

	for i := 0; i < 500; i++ {
		s.Step(pert)
		for _, v := range s.Grid().Cells {
			if v < cfg.ClampLow || v > cfg.ClampHigh {
				t.Fatalf("step %d: cell %v escaped [%g, %g]", i, v, cfg.ClampLow, cfg.ClampHigh)
			}
		}
	}
}

func TestSubstrate_FeelResonance(t *testing.T) {
	cfg := quietConfig(10)
	cfg.Baseline = 0
	cfg.Decay = 1.0
	cfg.ClampLow, cfg.ClampHigh = -1, 1

	s, err := NewSubstrate(cfg, stubRand{})
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	// uniform over-threshold map at a coarser resolution
	coherence := grid.New(5)
	coherence.Fill(0.90)

	if err := s.FeelResonance(coherence); err != nil {
		t.Fatalf("feel resonance failed: %v", err)
	}

	want := cfg.CoupleGain * 0.90
	for i, v := range s.Grid().Cells {
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("cell %d = %v, want %v", i, v, want)
		}
	}

	// a weak map leaves everything untouched
	weak := grid.New(5)
	weak.Fill(0.30)
	before := s.Grid().Clone()

	if err := s.FeelResonance(weak); err != nil {
		t.Fatalf("feel resonance failed: %v", err)
	}
	for i := range before.Cells {
		if s.Grid().Cells[i] != before.Cells[i] {
			t.Fatal("sub-threshold resonance must not move any cell")
		}
	}
}

func TestSubstrate_FeelResonance_ShapeMismatch(t *testing.T) {
	s, err := NewSubstrate(AmbientSubstrateConfig(16), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	if err := s.FeelResonance(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("nil map: expected ErrShapeMismatch, got %v", err)
	}

	bad := &grid.Grid{N: 0}
	if err := s.FeelResonance(bad); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("empty map: expected ErrShapeMismatch, got %v", err)
	}
}

func TestSubstrate_GlobalListening(t *testing.T) {
	cfg := quietConfig(10)
	s, err := NewSubstrate(cfg, stubRand{})
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	if got := s.GlobalListening(); got != 0 {
		t.Errorf("fresh zero grid: listening = %v, want 0", got)
	}

	// wake up a quarter of the grid
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			s.Grid().Set(row, col, 0.1)
		}
	}

	if got := s.GlobalListening(); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("listening = %v, want 0.25", got)
	}
}
