package field

import "errors"

// Domain errors for field construction and coupling.
var (
	// ErrInvalidConfig indicates a layer configured with impossible
	// parameters (non-positive size, inverted clamp bounds, decay
	// outside (0, 1]).
	ErrInvalidConfig = errors.New("field: invalid configuration")

	// ErrShapeMismatch indicates a coherence map that cannot be
	// resampled onto the layer's grid.
	ErrShapeMismatch = errors.New("field: coherence map shape mismatch")
)
