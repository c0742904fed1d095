package event

import "github.com/dshills/statecore/internal/event/topic"

// subscription is one registered handler for one event name.
type subscription struct {
	// handler is what gets invoked; for once subscriptions it is the wrapper.
	handler Handler

	// original is the handler as given by the caller.
	original Handler

	// ctx is the invocation context, nil to use the bus owner.
	ctx any
}

// context returns the invocation context for this subscription.
func (s *subscription) context(owner any) any {
	if s.ctx != nil {
		return s.ctx
	}
	return owner
}

// matches reports whether the subscription passes the removal filters.
// A nil filter matches anything.
func (s *subscription) matches(h Handler, ctx any) bool {
	if h != nil && !sameHandler(h, s.handler) && !sameHandler(h, s.original) {
		return false
	}
	if ctx != nil && !sameValue(ctx, s.ctx) {
		return false
	}
	return true
}

// onceHandler removes its own subscription before the first delegation.
type onceHandler struct {
	bus     *Bus
	name    topic.Topic
	handler Handler
	fired   bool
}

// Handle implements the Handler interface.
func (o *onceHandler) Handle(e Event) error {
	if o.fired {
		return nil
	}
	o.fired = true
	o.bus.Unsubscribe(o.name, o, nil)
	return o.handler.Handle(e)
}
