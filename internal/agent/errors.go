package agent

import "errors"

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("agent is closed")

	// ErrTaskPanic matches every *PanicError via errors.Is.
	ErrTaskPanic = errors.New("task panicked")
)

// PanicError is the rejection reason of a task that panicked.
type PanicError struct {
	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "agent: task panicked"
}

// Is allows errors.Is to match PanicError with ErrTaskPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrTaskPanic
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
