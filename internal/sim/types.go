package sim

import (
	"fmt"

	"github.com/san-kum/fieldsim/internal/field"
)

// Snapshot is the read-only per-step view handed to observers and
// metrics after a step completes.
type Snapshot struct {
	Step          int
	SubstrateMean float64
	ResponseMean  float64
	FieldMean     float64
	FieldMax      float64
	Listening     float64
	ManifestCount int
	Emitted       []field.Manifestation
}

// Observer receives a snapshot after every completed step.
type Observer interface {
	OnStep(s Snapshot)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) OnStep(s Snapshot) { f(s) }

// Metric aggregates a scalar across a run.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

// History holds the four parallel scalar series recorded once per step.
type History struct {
	SubstrateMean []float64
	ResponseMean  []float64
	FieldMean     []float64
	ManifestCount []float64
}

func (h *History) append(s Snapshot) {
	h.SubstrateMean = append(h.SubstrateMean, s.SubstrateMean)
	h.ResponseMean = append(h.ResponseMean, s.ResponseMean)
	h.FieldMean = append(h.FieldMean, s.FieldMean)
	h.ManifestCount = append(h.ManifestCount, float64(s.ManifestCount))
}

func (h *History) Len() int { return len(h.SubstrateMean) }

// Series returns a recorded series by name, for plotting and analysis.
func (h *History) Series(name string) ([]float64, bool) {
	switch name {
	case "substrate":
		return h.SubstrateMean, true
	case "response":
		return h.ResponseMean, true
	case "field":
		return h.FieldMean, true
	case "manifestations":
		return h.ManifestCount, true
	}
	return nil, false
}

// SeriesNames lists the recorded series in storage column order.
func SeriesNames() []string {
	return []string{"substrate", "response", "field", "manifestations"}
}

// Result summarizes a completed run.
type Result struct {
	Steps          int
	History        *History
	Manifestations []field.Manifestation
	Metrics        map[string]float64
}

// StepError reports a post-step invariant violation. It is fatal for the
// run: a non-finite cell means the configuration itself is broken.
type StepError struct {
	Step  int
	Layer string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %s layer: %v", e.Step, e.Layer, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
