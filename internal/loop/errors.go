package loop

import "errors"

var (
	// ErrClosed is returned by Post after Close.
	ErrClosed = errors.New("loop is closed")

	// ErrRejected is the rejection reason of a future rejected with a nil error.
	ErrRejected = errors.New("future rejected")

	// ErrCycle is the rejection reason of a future resolved with itself.
	ErrCycle = errors.New("future resolved with itself")
)

// PanicError wraps a panic recovered from a function started with Go.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "loop: goroutine panicked"
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
