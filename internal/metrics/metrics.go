package metrics

import (
	"github.com/san-kum/fieldsim/internal/sim"
)

// Activity averages the substrate's global-listening fraction across a
// run: how awake the background layer was on the whole.
type Activity struct {
	total   float64
	samples int
}

func NewActivity() *Activity { return &Activity{} }

func (a *Activity) Name() string { return "activity" }

func (a *Activity) Observe(s sim.Snapshot) {
	a.total += s.Listening
	a.samples++
}

func (a *Activity) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.total / float64(a.samples)
}

func (a *Activity) Reset() {
	a.total = 0
	a.samples = 0
}

// EmissionRate counts manifestations per step.
type EmissionRate struct {
	emitted int
	samples int
}

func NewEmissionRate() *EmissionRate { return &EmissionRate{} }

func (e *EmissionRate) Name() string { return "emission_rate" }

func (e *EmissionRate) Observe(s sim.Snapshot) {
	e.emitted += len(s.Emitted)
	e.samples++
}

func (e *EmissionRate) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return float64(e.emitted) / float64(e.samples)
}

func (e *EmissionRate) Reset() {
	e.emitted = 0
	e.samples = 0
}

// PeakField tracks the highest accumulation-field cell seen in the run.
type PeakField struct {
	peak float64
}

func NewPeakField() *PeakField { return &PeakField{} }

func (p *PeakField) Name() string { return "peak_field" }

func (p *PeakField) Observe(s sim.Snapshot) {
	if s.FieldMax > p.peak {
		p.peak = s.FieldMax
	}
}

func (p *PeakField) Value() float64 { return p.peak }

func (p *PeakField) Reset() { p.peak = 0 }

// Defaults returns the metric set every run records.
func Defaults() []sim.Metric {
	return []sim.Metric{NewActivity(), NewEmissionRate(), NewPeakField()}
}
