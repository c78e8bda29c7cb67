package field

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/grid"
)

func TestNewResponse_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ResponseConfig)
	}{
		{"zero size", func(c *ResponseConfig) { c.Size = 0 }},
		{"zero ceiling", func(c *ResponseConfig) { c.Ceiling = 0 }},
		{"relax above one", func(c *ResponseConfig) { c.Relax = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultResponseConfig(16)
			tt.mutate(&cfg)
			if _, err := NewResponse(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestResponse_Bonus(t *testing.T) {
	cfg := DefaultResponseConfig(4)

	tests := []struct {
		name      string
		substrate float64
		bonus     float64
	}{
		{"below offset", 0.02, 0},
		{"at offset", 0.06, 0},
		{"linear region", 0.062, (0.062 - 0.06) * 6.5},
		{"capped", 0.30, 0.022},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResponse(cfg)
			if err != nil {
				t.Fatalf("construct failed: %v", err)
			}

			sub := grid.New(4)
			sub.Fill(tt.substrate)
			r.Update(sub)

			// relaxation applies after the bonus
			want := tt.bonus * (1 - cfg.Relax)
			if got := r.Grid().At(0, 0); math.Abs(got-want) > 1e-12 {
				t.Errorf("coherence = %v, want %v", got, want)
			}
		})
	}
}

func TestResponse_RelaxationWithoutBonus(t *testing.T) {
	cfg := DefaultResponseConfig(4)
	r, err := NewResponse(cfg)
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	r.Grid().Fill(0.5)
	quiet := grid.New(4) // substrate entirely below offset

	r.Update(quiet)
	want := 0.5 * (1 - cfg.Relax)
	if got := r.Grid().At(1, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("after one quiet update: %v, want %v", got, want)
	}

	// relaxation is exponential: repeated quiet updates keep shrinking it
	for i := 0; i < 400; i++ {
		r.Update(quiet)
	}
	if got := r.Grid().At(1, 1); got > 0.01 {
		t.Errorf("coherence %v should have relaxed toward zero", got)
	}
}

func TestResponse_Bounded(t *testing.T) {
	cfg := DefaultResponseConfig(8)
	r, err := NewResponse(cfg)
	if err != nil {
		t.Fatalf("construct failed: %v", err)
	}

	hot := grid.New(8)
	hot.Fill(1.0)

	for i := 0; i < 1000; i++ {
		r.Update(hot)
		for _, v := range r.Grid().Cells {
			if v < 0 || v > cfg.Ceiling {
				t.Fatalf("step %d: cell %v escaped [0, %g]", i, v, cfg.Ceiling)
			}
		}
	}
}
