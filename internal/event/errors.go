package event

import (
	"github.com/dshills/statecore/internal/event/dispatch"
	"github.com/dshills/statecore/internal/event/topic"
)

// ErrHandlerPanic matches any *PanicError via errors.Is.
var ErrHandlerPanic = dispatch.ErrHandlerPanic

// HandlerError wraps an error from a handler with the event it was handling.
type HandlerError struct {
	// Topic is the event name being published.
	Topic topic.Topic

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error on " + string(e.Topic) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a recovered handler panic. Only isolated buses produce it.
type PanicError struct {
	// Topic is the event name being published.
	Topic topic.Topic

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panic on " + string(e.Topic)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
