package event

import (
	"errors"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/event/dispatch"
	"github.com/dshills/statecore/internal/event/topic"
)

// Bus is a synchronous publish/subscribe event bus.
//
// A Bus is not safe for concurrent use. Drive it from a single goroutine,
// normally the loop goroutine. Stats may be read from any goroutine.
type Bus struct {
	id    string
	owner any

	// Subscription lists per event name, in registration order.
	// A list is never modified in place once stored, so a publish can keep
	// iterating the list it captured while handlers change the registry.
	subs map[topic.Topic][]*subscription

	// Remote publishers this bus registered handlers on, by listen ID.
	listeningTo map[string]Publisher

	dispatcher *dispatch.SyncDispatcher
	isolate    bool
	logger     zerolog.Logger

	// Stats; handler outcomes are counted by the dispatcher.
	published atomic.Uint64
	active    atomic.Int64
}

// New creates a new event bus with the given options.
func New(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &Bus{
		id:      uuid.NewString(),
		owner:   config.owner,
		isolate: config.isolate,
		logger:  config.logger.With().Str("component", "event").Logger(),
	}
	if b.owner == nil {
		b.owner = b
	}

	b.dispatcher = dispatch.NewSyncDispatcher(
		dispatch.WithIsolation(config.isolate),
		dispatch.WithPanicHandler(func(v any, _ []byte) {
			b.logger.Warn().Interface("panic", v).Msg("handler panicked")
		}),
	)

	return b
}

// ListenID returns the identifier other buses use to track this one.
func (b *Bus) ListenID() string {
	return b.id
}

// Owner returns the default invocation context.
func (b *Bus) Owner() any {
	return b.owner
}

// Subscribe registers h for every name in names. Handlers run in
// registration order. A nil handler is ignored.
func (b *Bus) Subscribe(names topic.Topic, h Handler, ctx any) *Bus {
	if h == nil {
		return b
	}
	for _, name := range names.Names() {
		b.add(name, &subscription{handler: h, original: h, ctx: ctx})
	}
	return b
}

// SubscribeFunc registers fn for names. The registration can only be
// removed by name or context.
func (b *Bus) SubscribeFunc(names topic.Topic, fn func(e Event) error, ctx any) *Bus {
	if fn == nil {
		return b
	}
	return b.Subscribe(names, HandlerFunc(fn), ctx)
}

// SubscribeMap registers each handler in m under its name.
// Names are registered in sorted order.
func (b *Bus) SubscribeMap(m map[topic.Topic]Handler, ctx any) *Bus {
	for _, name := range sortedNames(m) {
		b.Subscribe(name, m[name], ctx)
	}
	return b
}

// SubscribeOnce registers h for every name in names. Each registration
// removes itself before its first invocation, so h runs at most once per
// name even if the event is re-published from inside h.
func (b *Bus) SubscribeOnce(names topic.Topic, h Handler, ctx any) *Bus {
	if h == nil {
		return b
	}
	for _, name := range names.Names() {
		once := &onceHandler{bus: b, name: name, handler: h}
		b.add(name, &subscription{handler: once, original: h, ctx: ctx})
	}
	return b
}

// SubscribeOnceMap is the batch form of SubscribeOnce.
func (b *Bus) SubscribeOnceMap(m map[topic.Topic]Handler, ctx any) *Bus {
	for _, name := range sortedNames(m) {
		b.SubscribeOnce(name, m[name], ctx)
	}
	return b
}

// Unsubscribe removes subscriptions.
//
// With no arguments every subscription is removed. With names only, every
// subscription for those names is removed. With a handler or context, only
// subscriptions matching both filters are removed, across names or across
// every name when names is empty. A handler filter matches either the
// registered handler or the handler given to SubscribeOnce.
func (b *Bus) Unsubscribe(names topic.Topic, h Handler, ctx any) *Bus {
	if len(b.subs) == 0 {
		return b
	}
	if !names.IsValid() && h == nil && ctx == nil {
		return b.UnsubscribeAll()
	}

	targets := names.Names()
	if len(targets) == 0 {
		targets = make([]topic.Topic, 0, len(b.subs))
		for name := range b.subs {
			targets = append(targets, name)
		}
	}

	removed := 0
	for _, name := range targets {
		list, ok := b.subs[name]
		if !ok {
			continue
		}
		if h == nil && ctx == nil {
			removed += len(list)
			delete(b.subs, name)
			continue
		}

		var kept []*subscription
		for _, s := range list {
			if !s.matches(h, ctx) {
				kept = append(kept, s)
			}
		}
		removed += len(list) - len(kept)
		if len(kept) == 0 {
			delete(b.subs, name)
		} else {
			b.subs[name] = kept
		}
	}

	if removed > 0 {
		b.active.Add(-int64(removed))
		b.logger.Debug().
			Str("topic", string(names)).
			Int("removed", removed).
			Msg("unsubscribed")
	}
	return b
}

// UnsubscribeAll removes every subscription.
func (b *Bus) UnsubscribeAll() *Bus {
	if len(b.subs) > 0 {
		b.logger.Debug().Int64("removed", b.active.Load()).Msg("unsubscribed all")
	}
	b.subs = nil
	b.active.Store(0)
	return b
}

// Publish invokes the handlers of every name in names, passing args.
//
// For each name, the subscribers registered for that name run first,
// then the topic.All subscribers. Both lists are captured when dispatch of
// the name begins; subscriptions added or removed by handlers take effect
// on the next publish. Publishing topic.All itself reaches its subscribers
// twice.
//
// The first handler error stops dispatch and is returned. A handler panic
// propagates to the caller. An isolated bus instead invokes every handler
// and returns all failures joined.
func (b *Bus) Publish(names topic.Topic, args ...any) error {
	var errs []error
	for _, name := range names.Names() {
		b.published.Add(1)
		if len(b.subs) == 0 {
			continue
		}

		named := b.subs[name]
		all := b.subs[topic.All]
		ev := Event{Name: name, Args: args}

		for _, list := range [][]*subscription{named, all} {
			for _, s := range list {
				err := b.invoke(s, ev)
				if err == nil {
					continue
				}
				if !b.isolate {
					return err
				}
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// invoke runs one handler and converts its failure to a typed error.
func (b *Bus) invoke(s *subscription, ev Event) error {
	ev.Context = s.context(b.owner)
	h := s.handler

	result := b.dispatcher.Dispatch(func() error {
		return h.Handle(ev)
	})

	switch err := result.Err().(type) {
	case nil:
		return nil
	case *dispatch.PanicError:
		return &PanicError{Topic: ev.Name, Value: err.Value, Stack: err.Stack}
	default:
		return &HandlerError{Topic: ev.Name, Err: err}
	}
}

// Subscriptions returns the number of registered subscriptions.
func (b *Bus) Subscriptions() int {
	return int(b.active.Load())
}

// HasSubscribers returns true if any subscription is registered for name.
func (b *Bus) HasSubscribers(name topic.Topic) bool {
	return len(b.subs[name]) > 0
}

// Stats returns bus statistics.
// Note: Stats are read without a mutex, so values may be slightly inconsistent
// if stats are being updated concurrently.
func (b *Bus) Stats() Stats {
	ds := b.dispatcher.Stats()
	return Stats{
		Published:     b.published.Load(),
		Delivered:     ds.Dispatched,
		Succeeded:     ds.Succeeded,
		HandlerErrors: ds.Failed,
		HandlerPanics: ds.Panicked,
		HandlerTime:   ds.TotalDuration,
		Subscriptions: b.active.Load(),
	}
}

// add appends a subscription, copying the list so captured lists stay intact.
func (b *Bus) add(name topic.Topic, s *subscription) {
	if b.subs == nil {
		b.subs = make(map[topic.Topic][]*subscription)
	}
	list := b.subs[name]
	b.subs[name] = append(list[:len(list):len(list)], s)
	b.active.Add(1)

	b.logger.Debug().
		Str("topic", string(name)).
		Int("handlers", len(b.subs[name])).
		Msg("subscribed")
}

func sortedNames(m map[topic.Topic]Handler) []topic.Topic {
	names := make([]topic.Topic, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
