// Package event provides the synchronous publish/subscribe bus that the
// attribute store and the task agent publish through.
//
// # Names
//
// Events are identified by plain names. A topic.Topic may carry several
// names separated by whitespace; Subscribe, Unsubscribe and Publish
// treat such a topic as the list of its names:
//
//	bus.Subscribe("change:zoom change:center", h, nil)
//	bus.Publish("change:zoom change:center", store)
//
// The name topic.All is a wildcard. Its subscribers run after the named
// subscribers of every publish and see the real name in Event.Name.
//
// # Delivery
//
// Publish runs handlers in the caller's goroutine, in registration order.
// The handler lists are captured when dispatch of a name begins, so a
// handler may subscribe or unsubscribe freely; the change applies to the
// next publish. Handlers may publish re-entrantly.
//
// By default the first handler error aborts the publish and is returned to
// the publisher, and a handler panic unwinds through Publish. A bus built
// with WithIsolation(true) recovers panics, keeps dispatching and returns
// every failure joined with errors.Join.
//
// # Handler identity
//
// Unsubscribe can remove a specific handler only if the handler's dynamic
// type is comparable. HandlerFunc is not; use Func to get a pointer-backed
// handler that can be removed later:
//
//	onZoom := event.Func(func(e event.Event) error {
//	    fmt.Println("zoom is now", e.Arg(1))
//	    return nil
//	})
//	store.Subscribe(topic.Change("zoom"), onZoom, nil)
//	store.Unsubscribe(topic.Change("zoom"), onZoom, nil)
//
// # Listening
//
// ListenTo registers a handler on another Publisher with this bus's owner
// as context, and remembers the remote by its listen ID so StopListening
// can tear the registrations down without a reference to each handler.
//
// # Thread Safety
//
// A Bus is not safe for concurrent use. All buses in a process are driven
// from the loop goroutine (see package loop). Stats is the exception and
// may be called from any goroutine.
package event
