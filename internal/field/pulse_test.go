package field

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewPulseGenerator_InvalidConfig(t *testing.T) {
	cfg := DefaultPulseConfig(180)
	cfg.Size = 60 // no room inside the 40-cell margin
	if _, err := NewPulseGenerator(cfg, rand.New(rand.NewSource(1))); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = DefaultPulseConfig(180)
	cfg.Probability = 1.5
	if _, err := NewPulseGenerator(cfg, rand.New(rand.NewSource(1))); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPulse_ZeroProbabilityIsSilent(t *testing.T) {
	cfg := DefaultPulseConfig(64)
	cfg.Probability = 0
	cfg.Margin = 10
	cfg.Radius = 5

	p, err := NewPulseGenerator(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		pulse := p.Next()
		for _, v := range pulse.Cells {
			if v != 0 {
				t.Fatal("zero-probability generator produced a pulse")
			}
		}
	}
}

func TestPulse_Geometry(t *testing.T) {
	cfg := DefaultPulseConfig(96)
	cfg.Probability = 1 // fire every step
	cfg.Margin = 20
	cfg.Radius = 8

	p, err := NewPulseGenerator(cfg, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	for trial := 0; trial < 20; trial++ {
		pulse := p.Next()

		active := 0
		for row := 0; row < cfg.Size; row++ {
			for col := 0; col < cfg.Size; col++ {
				v := pulse.At(row, col)
				if v == 0 {
					continue
				}
				active++

				if v < cfg.Base+cfg.JitterLow || v >= cfg.Base+cfg.JitterHigh {
					t.Fatalf("active cell %v outside jitter band", v)
				}

				// centers stay Margin from every edge, so active cells
				// stay at least Margin-Radius away
				min := cfg.Margin - cfg.Radius
				if row < min || col < min || row >= cfg.Size-min || col >= cfg.Size-min {
					t.Fatalf("active cell (%d, %d) violates edge margin", row, col)
				}
			}
		}

		if active == 0 {
			t.Fatal("probability-1 generator produced no pulse")
		}
		// a radius-8 disc holds at most pi*r^2 cells
		if active > 220 {
			t.Fatalf("pulse spans %d cells, more than one disc allows", active)
		}
	}
}
