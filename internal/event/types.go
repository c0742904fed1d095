package event

import (
	"reflect"
	"time"

	"github.com/dshills/statecore/internal/event/topic"
)

// Event is what a handler receives for one published name.
type Event struct {
	// Name is the published event name. Subscribers of topic.All see the
	// real name here.
	Name topic.Topic

	// Args are the arguments given to Publish, shared by every handler.
	Args []any

	// Context is the subscription context, or the bus owner when the
	// subscription was registered without one.
	Context any
}

// Arg returns the i-th argument, or nil if there is none.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event. A returned error aborts the publish.
	Handle(e Event) error
}

// HandlerFunc is a function adapter for Handler.
//
// HandlerFunc values are not comparable, so they cannot be removed by
// identity. Wrap the function with Func when it must be unsubscribed later.
type HandlerFunc func(e Event) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(e Event) error {
	return f(e)
}

// Callback is a comparable function handler. Two callbacks are the same
// handler only if they are the same pointer.
type Callback struct {
	fn func(Event) error
}

// Func wraps fn as a comparable handler.
func Func(fn func(e Event) error) *Callback {
	return &Callback{fn: fn}
}

// Handle implements the Handler interface.
func (c *Callback) Handle(e Event) error {
	if c == nil || c.fn == nil {
		return nil
	}
	return c.fn(e)
}

// sameHandler reports whether a and b are the same handler.
// Handlers whose dynamic type is not comparable never match.
func sameHandler(a, b Handler) bool {
	if a == nil || b == nil {
		return false
	}
	return sameValue(a, b)
}

// sameValue compares two values with == when that cannot panic.
func sameValue(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// Stats contains bus statistics.
type Stats struct {
	// Published is the number of event names published.
	Published uint64

	// Delivered is the number of handler invocations.
	Delivered uint64

	// Succeeded is the number of handlers that returned nil.
	Succeeded uint64

	// HandlerErrors is the number of handlers that returned an error.
	HandlerErrors uint64

	// HandlerPanics is the number of handler panics recovered in isolated mode.
	HandlerPanics uint64

	// HandlerTime is the cumulative time spent in handlers.
	HandlerTime time.Duration

	// Subscriptions is the number of registered subscriptions.
	Subscriptions int64
}
