package multibody

import (
	"errors"
	"fmt"
)

// Domain errors for dynamics evaluation.
var (
	// ErrStaleState indicates the model changed since its derived state was
	// last compiled, or a kinematics cache belongs to another revision.
	ErrStaleState = errors.New("multibody: kinematics state is stale for the current model")

	// ErrDimensionMismatch indicates inputs or force element outputs with the wrong shape.
	ErrDimensionMismatch = errors.New("multibody: dimension mismatch")

	// ErrUnsupportedPath indicates the native kernel was asked to take
	// gradient-carrying inputs.
	ErrUnsupportedPath = errors.New("multibody: native kernel does not accept gradient-carrying inputs")

	// ErrMissingCapability indicates a force element without a gradient
	// implementation was asked for gradients.
	ErrMissingCapability = errors.New("multibody: force element has no gradient implementation")

	// ErrInvalidModel indicates a model that cannot be compiled.
	ErrInvalidModel = errors.New("multibody: invalid model")
)

// StageError wraps an error with the pipeline stage and body it came from.
// Body is -1 when the failure is not tied to a body.
type StageError struct {
	Stage   string
	Body    int
	Wrapped error
}

func (e *StageError) Error() string {
	if e.Body < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Wrapped)
	}
	return fmt.Sprintf("%s (body %d): %v", e.Stage, e.Body, e.Wrapped)
}

func (e *StageError) Unwrap() error {
	return e.Wrapped
}
