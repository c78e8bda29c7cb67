// Package field provides the three coupled scalar-field layers and the
// stochastic pulse source that drive the ecosystem simulation:
//
//   - [Substrate]: slowly diffusing ambient background field
//   - [Response]: threshold-accumulating, relaxing field driven by the substrate
//   - [Accumulation]: overflow field that emits discrete manifestation events
//   - [PulseGenerator]: rare localized perturbations fed into the substrate
//
// Each layer owns one grid and mutates it once per simulation step. The
// step ordering and the feedback from manifestations back into the
// substrate are the orchestrator's business (internal/sim).
//
// All stochastic behavior flows through an injected [grid.Rand], so a run
// is fully reproducible given a seed.
package field
