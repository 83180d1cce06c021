package dynamics

import (
	"errors"
	"fmt"
)

// Definition errors returned before anything is added to a world.
var (
	// ErrFrozen indicates an operation on a body that left the world bounds.
	ErrFrozen = errors.New("dynamics: body is frozen")

	// ErrTooManyShapes indicates a body definition with more than 64 shapes.
	ErrTooManyShapes = errors.New("dynamics: too many shapes")

	// ErrInvalidShape indicates a shape definition with bad material or geometry.
	ErrInvalidShape = errors.New("dynamics: invalid shape definition")

	// ErrInvalidBody indicates a body definition that cannot be created.
	ErrInvalidBody = errors.New("dynamics: invalid body definition")

	// ErrInvalidJoint indicates a joint definition that cannot be created.
	ErrInvalidJoint = errors.New("dynamics: invalid joint definition")

	// ErrGearJoint indicates a gear joint over unsupported joints or a
	// non-static ground.
	ErrGearJoint = errors.New("dynamics: gear joint needs revolute or prismatic joints on static ground")

	// ErrUnstable indicates a body state that is no longer finite.
	ErrUnstable = errors.New("dynamics: simulation unstable (state diverged)")
)

// StepError wraps an error with the step that produced it.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// assert panics when an internal invariant does not hold.
func assert(ok bool, msg string) {
	if !ok {
		panic("dynamics: assertion failed: " + msg)
	}
}
