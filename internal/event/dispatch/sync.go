package dispatch

import (
	"sync/atomic"
	"time"
)

// SyncDispatcher executes handler calls synchronously in the caller's goroutine.
type SyncDispatcher struct {
	executor *Executor

	isolate      bool
	panicHandler PanicHandler

	// Stats
	dispatched  atomic.Uint64
	succeeded   atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	totalTimeNs atomic.Int64
}

// NewSyncDispatcher creates a new synchronous dispatcher.
func NewSyncDispatcher(opts ...SyncOption) *SyncDispatcher {
	d := &SyncDispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	d.executor = NewExecutor(
		WithRecover(d.isolate),
		WithExecutorPanicHandler(d.panicHandler),
	)
	return d
}

// SyncOption configures a SyncDispatcher.
type SyncOption func(*SyncDispatcher)

// WithIsolation enables per-handler panic recovery.
func WithIsolation(enabled bool) SyncOption {
	return func(d *SyncDispatcher) {
		d.isolate = enabled
	}
}

// WithPanicHandler sets the panic handler used when isolation is enabled.
func WithPanicHandler(h PanicHandler) SyncOption {
	return func(d *SyncDispatcher) {
		d.panicHandler = h
	}
}

// Dispatch executes call synchronously.
func (d *SyncDispatcher) Dispatch(call Call) Result {
	d.dispatched.Add(1)

	result := d.executor.Execute(call)

	d.totalTimeNs.Add(result.Duration.Nanoseconds())

	switch {
	case result.IsPanic():
		d.panicked.Add(1)
	case result.IsError():
		d.failed.Add(1)
	case result.IsSuccess():
		d.succeeded.Add(1)
	}

	return result
}

// Stats returns dispatch statistics.
// Note: Stats are read without a mutex, so values may be slightly inconsistent
// if stats are being updated concurrently.
func (d *SyncDispatcher) Stats() SyncDispatcherStats {
	return SyncDispatcherStats{
		Dispatched:    d.dispatched.Load(),
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		Panicked:      d.panicked.Load(),
		TotalDuration: time.Duration(d.totalTimeNs.Load()),
	}
}

// SyncDispatcherStats contains statistics for a sync dispatcher.
type SyncDispatcherStats struct {
	// Dispatched is the total number of dispatch calls.
	Dispatched uint64

	// Succeeded is the number of successful handler executions.
	Succeeded uint64

	// Failed is the number of handlers that returned errors.
	Failed uint64

	// Panicked is the number of handlers that panicked (isolated only).
	Panicked uint64

	// TotalDuration is the cumulative time spent in handlers.
	TotalDuration time.Duration
}
