package dynamo

import "errors"

// Domain errors for solver operations.
var (
	// ErrInvalidConfig indicates a configuration value that would produce
	// degenerate behavior (non-positive radius, grid size, sub-steps, rate).
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownParticle indicates a handle that does not name a particle.
	ErrUnknownParticle = errors.New("dynamo: unknown particle")

	// ErrInvalidState indicates a particle position containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// StepError wraps an error with the frame it occurred in.
type StepError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
