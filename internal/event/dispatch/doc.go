// Package dispatch runs event handlers for the event bus.
//
// # Isolation
//
// A SyncDispatcher runs each handler in the caller's goroutine. By default
// it is unisolated: a handler panic unwinds straight through Dispatch and a
// returned error is reported in the Result for the bus to propagate.
//
// With WithIsolation(true), panics are recovered and reported in the
// Result alongside the stack, so the bus can keep dispatching to the
// remaining handlers:
//
//	d := dispatch.NewSyncDispatcher(
//	    dispatch.WithIsolation(true),
//	    dispatch.WithPanicHandler(func(v any, stack []byte) {
//	        log.Printf("panic in handler: %v\n%s", v, stack)
//	    }),
//	)
//	result := d.Dispatch(func() error { return h.Handle(ev) })
//	if !result.IsSuccess() {
//	    // Handle error or panic
//	}
package dispatch
