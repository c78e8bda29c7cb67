package viz

import "github.com/san-kum/fieldsim/internal/sim"

// Ring is a bounded snapshot buffer for the live view. Once full, each
// push drops the oldest entry, so memory stays constant over arbitrarily
// long interactive sessions.
type Ring struct {
	capacity int
	snaps    []sim.Snapshot
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{capacity: capacity}
}

func (r *Ring) Push(s sim.Snapshot) {
	r.snaps = append(r.snaps, s)
	if len(r.snaps) > r.capacity {
		r.snaps = r.snaps[1:]
	}
}

func (r *Ring) Len() int { return len(r.snaps) }

func (r *Ring) Clear() { r.snaps = r.snaps[:0] }

func (r *Ring) Last() (sim.Snapshot, bool) {
	if len(r.snaps) == 0 {
		return sim.Snapshot{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

// Means extracts the buffered per-step mean of one layer for plotting.
func (r *Ring) Means(layer string) []float64 {
	out := make([]float64, 0, len(r.snaps))
	for _, s := range r.snaps {
		switch layer {
		case "response":
			out = append(out, s.ResponseMean)
		case "field":
			out = append(out, s.FieldMean)
		default:
			out = append(out, s.SubstrateMean)
		}
	}
	return out
}
