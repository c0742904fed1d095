package dispatch

import "errors"

// ErrHandlerPanic matches any *PanicError via errors.Is.
var ErrHandlerPanic = errors.New("handler panicked")
