package grid

import (
	"fmt"
	"math"
)

// Rand is the random capability injected into stochastic components.
// *math/rand.Rand satisfies it; tests substitute fixed-draw sources.
type Rand interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// Grid is a square matrix of float64 cells stored row-major.
// It is the shared value type of every field layer, the way a state
// vector is shared by every dynamical model.
type Grid struct {
	N     int
	Cells []float64
}

func New(n int) *Grid {
	return &Grid{N: n, Cells: make([]float64, n*n)}
}

// NewNormal fills a fresh grid with independent draws from N(0, std).
func NewNormal(n int, std float64, rng Rand) *Grid {
	g := New(n)
	for i := range g.Cells {
		g.Cells[i] = rng.NormFloat64() * std
	}
	return g
}

func (g *Grid) Clone() *Grid {
	c := New(g.N)
	copy(c.Cells, g.Cells)
	return c
}

// index panics on out-of-range coordinates. Row-major flattening would
// otherwise silently alias a bad (row, col) to some other cell.
func (g *Grid) index(row, col int) int {
	if row < 0 || row >= g.N || col < 0 || col >= g.N {
		panic(fmt.Sprintf("grid: cell (%d,%d) out of range for size %d", row, col, g.N))
	}
	return row*g.N + col
}

func (g *Grid) At(row, col int) float64 { return g.Cells[g.index(row, col)] }

func (g *Grid) Set(row, col int, v float64) { g.Cells[g.index(row, col)] = v }

func (g *Grid) AddAt(row, col int, v float64) { g.Cells[g.index(row, col)] += v }

func (g *Grid) Fill(v float64) {
	for i := range g.Cells {
		g.Cells[i] = v
	}
}

func (g *Grid) AddScalar(v float64) {
	for i := range g.Cells {
		g.Cells[i] += v
	}
}

func (g *Grid) Scale(factor float64) {
	for i := range g.Cells {
		g.Cells[i] *= factor
	}
}

// AddNoise perturbs every cell with an independent N(0, std) draw.
func (g *Grid) AddNoise(std float64, rng Rand) {
	if std <= 0 {
		return
	}
	for i := range g.Cells {
		g.Cells[i] += rng.NormFloat64() * std
	}
}

func (g *Grid) Clamp(lo, hi float64) {
	for i, v := range g.Cells {
		if v < lo {
			g.Cells[i] = lo
		} else if v > hi {
			g.Cells[i] = hi
		}
	}
}

func (g *Grid) Mean() float64 {
	sum := 0.0
	for _, v := range g.Cells {
		sum += v
	}
	return sum / float64(len(g.Cells))
}

func (g *Grid) Max() float64 {
	max := math.Inf(-1)
	for _, v := range g.Cells {
		if v > max {
			max = v
		}
	}
	return max
}

// Fraction reports the share of cells strictly above threshold.
func (g *Grid) Fraction(threshold float64) float64 {
	count := 0
	for _, v := range g.Cells {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(g.Cells))
}

// IsValid reports whether every cell is finite.
func (g *Grid) IsValid() bool {
	for _, v := range g.Cells {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Blend mixes g in place with other: g = w*g + ws*other.
// Shapes must already agree; callers only blend a grid with its own blur.
func (g *Grid) Blend(other *Grid, w, ws float64) {
	for i := range g.Cells {
		g.Cells[i] = w*g.Cells[i] + ws*other.Cells[i]
	}
}

// Blur returns an isotropically smoothed copy using a separable Gaussian
// kernel derived from sigma. Edges are clamped. A non-positive sigma is
// the identity, which keeps zero-diffusion configurations exact.
func (g *Grid) Blur(sigma float64) *Grid {
	if sigma <= 0 {
		return g.Clone()
	}

	kernel := gaussKernel(sigma)
	radius := len(kernel) / 2
	n := g.N

	tmp := New(n)
	out := New(n)

	// horizontal pass
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			sum := 0.0
			for k := -radius; k <= radius; k++ {
				cc := clampIndex(c+k, n)
				sum += kernel[k+radius] * g.Cells[r*n+cc]
			}
			tmp.Cells[r*n+c] = sum
		}
	}

	// vertical pass
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			sum := 0.0
			for k := -radius; k <= radius; k++ {
				rr := clampIndex(r+k, n)
				sum += kernel[k+radius] * tmp.Cells[rr*n+c]
			}
			out.Cells[r*n+c] = sum
		}
	}

	return out
}

func gaussKernel(sigma float64) []float64 {
	radius := int(3*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}

	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Resample maps g onto a size-n grid by bilinear interpolation. The
// source must have positive dimensions; equal sizes return a plain copy.
func (g *Grid) Resample(n int) (*Grid, error) {
	if g == nil || g.N <= 0 {
		return nil, fmt.Errorf("resample: source has non-positive size")
	}
	if n <= 0 {
		return nil, fmt.Errorf("resample: target size %d must be positive", n)
	}
	if g.N == n {
		return g.Clone(), nil
	}

	out := New(n)
	scale := float64(g.N-1) / float64(n-1)
	if n == 1 {
		scale = 0
	}

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			sr := float64(r) * scale
			sc := float64(c) * scale

			r0 := int(sr)
			c0 := int(sc)
			r1 := clampIndex(r0+1, g.N)
			c1 := clampIndex(c0+1, g.N)

			fr := sr - float64(r0)
			fc := sc - float64(c0)

			top := (1-fc)*g.At(r0, c0) + fc*g.At(r0, c1)
			bot := (1-fc)*g.At(r1, c0) + fc*g.At(r1, c1)
			out.Set(r, c, (1-fr)*top+fr*bot)
		}
	}

	return out, nil
}
