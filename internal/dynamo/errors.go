package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name no component recognises.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrDimensionMismatch indicates mismatched matrix/vector dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrSingularSystem indicates the equations of motion could not be solved.
	ErrSingularSystem = errors.New("dynamo: singular linear system")

	// ErrIntegration indicates the stepper could not reach the end of the
	// interval within tolerance and step budget. Fatal for the step.
	ErrIntegration = errors.New("dynamo: integration failed")

	// ErrInvalidControlOutput indicates a controller returned NaN or Inf.
	// Fatal for the step; callers must not substitute zero silently.
	ErrInvalidControlOutput = errors.New("dynamo: controller output is not a finite number")

	// ErrInvalidGain indicates anti-windup was requested with Ki == 0 while
	// the output left its bounds. Recoverable: the unclamped output is used.
	ErrInvalidGain = errors.New("dynamo: anti-windup needs a non-zero integral gain")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return SimError{Time: e.Time, Step: e.Step, Message: e.Wrapped.Error()}.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
