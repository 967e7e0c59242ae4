package pagerank

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAlpha is returned when the damping factor is outside (0, 1).
	ErrInvalidAlpha = errors.New("invalid alpha: must be in the open interval (0, 1)")

	// ErrInvalidTolerance is returned when the tolerance is not positive.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidMaxIterations is returned when the iteration cap is not positive.
	ErrInvalidMaxIterations = errors.New("invalid max iterations: must be positive")

	// ErrConvergence is returned when the iteration cap is reached before the
	// tolerance is met. Use errors.As with *ConvergenceError for details.
	ErrConvergence = errors.New("pagerank did not converge")
)

// ConvergenceError reports that power iteration hit its cap.
type ConvergenceError struct {
	// Iterations is the number of iterations performed.
	Iterations int

	// Delta is the largest component change of the last iteration.
	Delta float64

	// Tolerance is the threshold that was not met.
	Tolerance float64
}

// Error implements the error interface.
func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d iterations (delta %g > tolerance %g)",
		ErrConvergence, e.Iterations, e.Delta, e.Tolerance)
}

// Unwrap returns ErrConvergence so errors.Is works.
func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}
