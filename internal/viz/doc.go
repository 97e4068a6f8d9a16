// Package viz draws a running solver in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view of one experiment with parameter tuning
//   - [Canvas]: Braille-based pixel canvas with per-cell color
//   - a preset picker started by [RunInteractive]
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	S     - Single frame while paused
//	R     - Restart from the initial configuration
//	Tab   - Select parameter, Up/Down to tune it
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
