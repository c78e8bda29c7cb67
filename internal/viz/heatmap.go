package viz

import (
	"strings"

	"github.com/san-kum/fieldsim/internal/grid"
)

// ramp orders glyphs from empty to saturated. Rendering maps a cell
// value linearly between lo and hi onto this ramp.
var ramp = []rune(" .:-=+*#%@")

// Heatmap renders g as a block of glyph rows, cols wide and rows tall.
// Each glyph covers a rectangular patch of cells and shows the patch mean.
func Heatmap(g *grid.Grid, cols, rows int, lo, hi float64) string {
	if g == nil || cols < 1 || rows < 1 || hi <= lo {
		return ""
	}
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.WriteRune(glyph(patchMean(g, r, rows, c, cols), lo, hi))
		}
		if r < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func patchMean(g *grid.Grid, r, rows, c, cols int) float64 {
	r0, r1 := r*g.N/rows, (r+1)*g.N/rows
	c0, c1 := c*g.N/cols, (c+1)*g.N/cols
	if r1 <= r0 {
		r1 = r0 + 1
	}
	if c1 <= c0 {
		c1 = c0 + 1
	}
	sum, count := 0.0, 0
	for i := r0; i < r1 && i < g.N; i++ {
		for j := c0; j < c1 && j < g.N; j++ {
			sum += g.At(i, j)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func glyph(v, lo, hi float64) rune {
	t := (v - lo) / (hi - lo)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	idx := int(t * float64(len(ramp)-1))
	return ramp[idx]
}
