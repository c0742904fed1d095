package event

import "github.com/dshills/statecore/internal/event/topic"

// Publisher is anything another bus can listen to.
// *Bus implements it, and so does every type embedding one.
type Publisher interface {
	// ListenID identifies the publisher in a listener's bookkeeping.
	ListenID() string

	// Subscribe registers h for names with the given context.
	Subscribe(names topic.Topic, h Handler, ctx any) *Bus

	// SubscribeOnce registers h to run at most once per name.
	SubscribeOnce(names topic.Topic, h Handler, ctx any) *Bus

	// Unsubscribe removes subscriptions matching the filters.
	Unsubscribe(names topic.Topic, h Handler, ctx any) *Bus

	// Subscriptions returns the number of registered subscriptions.
	Subscriptions() int
}

var _ Publisher = (*Bus)(nil)
