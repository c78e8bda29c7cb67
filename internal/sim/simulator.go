package sim

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/fieldsim/internal/field"
)

// ErrInvalidState indicates a grid cell went NaN/Inf after a step.
var ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

// FeedbackConfig shapes the ripple written back into the substrate when
// a step emits a manifestation.
type FeedbackConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Scale     float64 `yaml:"scale"`
	Radius    int     `yaml:"radius"`
}

func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{Amplitude: 0.018, Scale: 9.0, Radius: 18}
}

// Simulator owns the three field layers and the pulse source and runs
// the coupled step loop:
//
//	pulse -> substrate -> response -> accumulation -> feedback ripple
//
// It is single-threaded: steps execute strictly in order, each a total
// function of the previous step's grids plus the shared random stream.
// Grids are always fully updated at step boundaries, so a run may be
// stopped between steps without corrupting state.
type Simulator struct {
	substrate *field.Substrate
	response  *field.Response
	accum     *field.Accumulation
	pulses    *field.PulseGenerator
	feedback  FeedbackConfig

	history   *History
	observers []Observer
	metrics   []Metric
	step      int
}

func New(sub *field.Substrate, resp *field.Response, acc *field.Accumulation, pulses *field.PulseGenerator) *Simulator {
	return &Simulator{
		substrate: sub,
		response:  resp,
		accum:     acc,
		pulses:    pulses,
		feedback:  DefaultFeedbackConfig(),
		history:   &History{},
	}
}

func (s *Simulator) SetFeedback(cfg FeedbackConfig) { s.feedback = cfg }

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

func (s *Simulator) Substrate() *field.Substrate { return s.substrate }

func (s *Simulator) Response() *field.Response { return s.response }

func (s *Simulator) Accumulation() *field.Accumulation { return s.accum }

func (s *Simulator) History() *History { return s.history }

func (s *Simulator) StepCount() int { return s.step }

// Step advances the whole ecosystem one tick in the fixed coupling
// order, applies manifestation feedback, records history, and notifies
// observers. The returned error is fatal: it means a layer produced a
// non-finite cell, which only a parameter misconfiguration can cause.
func (s *Simulator) Step() error {
	pulse := s.pulses.Next()

	s.substrate.Step(pulse)
	s.response.Update(s.substrate.Grid())
	s.accum.Accumulate(s.response.Grid())
	emitted := s.accum.Step()

	// the newest manifestation of this exact step ripples back into
	// the substrate, closing the loop
	if len(emitted) > 0 {
		newest := emitted[len(emitted)-1]
		s.applyRipple(newest.Row, newest.Col)
	}

	if err := s.validate(); err != nil {
		return err
	}

	snap := Snapshot{
		Step:          s.step,
		SubstrateMean: s.substrate.Grid().Mean(),
		ResponseMean:  s.response.Grid().Mean(),
		FieldMean:     s.accum.Grid().Mean(),
		FieldMax:      s.accum.Grid().Max(),
		Listening:     s.substrate.GlobalListening(),
		ManifestCount: len(s.accum.Manifestations()),
		Emitted:       emitted,
	}
	s.history.append(snap)

	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		o.OnStep(snap)
	}

	s.step++
	return nil
}

// applyRipple adds a radial exponential-decay pattern centered at the
// manifestation's coordinates directly into the substrate grid.
func (s *Simulator) applyRipple(row, col int) {
	g := s.substrate.Grid()
	radius := s.feedback.Radius

	rLo, rHi := row-radius, row+radius
	if rLo < 0 {
		rLo = 0
	}
	if rHi >= g.N {
		rHi = g.N - 1
	}

	for r := rLo; r <= rHi; r++ {
		for c := max(0, col-radius); c <= min(g.N-1, col+radius); c++ {
			dr := float64(r - row)
			dc := float64(c - col)
			dist := math.Sqrt(dr*dr + dc*dc)
			if dist < float64(radius) {
				g.AddAt(r, c, s.feedback.Amplitude*math.Exp(-dist/s.feedback.Scale))
			}
		}
	}
}

func (s *Simulator) validate() error {
	layers := []struct {
		name string
		ok   bool
	}{
		{"substrate", s.substrate.Grid().IsValid()},
		{"response", s.response.Grid().IsValid()},
		{"field", s.accum.Grid().IsValid()},
	}
	for _, l := range layers {
		if !l.ok {
			return &StepError{Step: s.step, Layer: l.name, Err: ErrInvalidState}
		}
	}
	return nil
}

// Run executes steps sequentially. Cancellation is honored between
// steps only; the last fully completed step's state stays intact and
// usable. Metrics are reset at the start and collected into the result.
func (s *Simulator) Run(ctx context.Context, steps int) (*Result, error) {
	if steps <= 0 {
		return nil, errors.New("sim: steps must be positive")
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return s.result(), ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return s.result(), err
		}
	}

	return s.result(), nil
}

func (s *Simulator) result() *Result {
	res := &Result{
		Steps:          s.step,
		History:        s.history,
		Manifestations: s.accum.Manifestations(),
		Metrics:        make(map[string]float64),
	}
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
