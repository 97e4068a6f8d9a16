// Package physics provides the position-based constraints applied to the
// particle store every sub-step:
//
//   - [Gravity]: uniform acceleration accumulated on every particle
//   - [Boundary]: hard circular containment
//   - [Resolver]: pairwise circle-circle overlap resolution, either by
//     exhaustive pairing or through a [grid.Grid] broad phase
//
// All corrections move positions directly. Because particles are advanced
// by position Verlet, a correction also changes the implied velocity of
// the next step without any separate bookkeeping.
//
// # Degenerate geometry
//
// Coincident centers (zero separation) use [dynamo.AxisX] as the contact
// normal, so no NaN ever reaches particle state.
//
// # Tuning
//
// [Resolver] implements GetParams/SetParam for runtime adjustment:
//
//	r := physics.NewResolver()
//	r.SetParam("iterations", 4)
package physics
