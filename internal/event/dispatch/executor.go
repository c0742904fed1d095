package dispatch

import (
	"runtime/debug"
	"time"
)

// Executor handles the actual execution of handler calls with
// optional panic recovery and timing.
type Executor struct {
	isolate      bool
	panicHandler PanicHandler
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRecover makes the executor recover panics into the Result.
func WithRecover(enabled bool) ExecutorOption {
	return func(e *Executor) {
		e.isolate = enabled
	}
}

// WithExecutorPanicHandler sets the panic handler for the executor.
func WithExecutorPanicHandler(h PanicHandler) ExecutorOption {
	return func(e *Executor) {
		e.panicHandler = h
	}
}

// Execute runs call and returns the result.
// Without recovery a panic propagates to the caller.
func (e *Executor) Execute(call Call) (result Result) {
	start := time.Now()

	if e.isolate {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()

				result.Success = false
				result.Panicked = true
				result.PanicValue = r
				result.PanicStack = stack

				// Protect the panic handler call
				if e.panicHandler != nil {
					func() {
						defer func() {
							_ = recover()
						}()
						e.panicHandler(r, stack)
					}()
				}
			}
			result.Duration = time.Since(start)
		}()
	}

	if err := call(); err != nil {
		result.Error = err
	} else {
		result.Success = true
	}
	result.Duration = time.Since(start)

	return result
}
