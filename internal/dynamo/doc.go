// Package dynamo provides the shared primitives of the particle solver.
//
// The package defines the small vocabulary every other package builds on:
//
//   - [Vec2]: 2D float vector with the handful of operations the solver needs
//   - sentinel errors ([ErrInvalidConfig], [ErrUnknownParticle])
//   - [ParallelFor]: chunked fan-out over an index range
//   - [TrigTable]: precomputed sin/cos used by emitters
//
// # Degenerate directions
//
// [Vec2.Normalize] never divides by zero. A zero-length vector normalizes
// to [AxisX], so collision and containment code can rely on a unit normal
// without special-casing coincident points:
//
//	n := a.Sub(b).Normalize()
//
// # Thread Safety
//
// Values in this package are immutable or read-only after construction and
// may be shared freely between goroutines.
package dynamo
