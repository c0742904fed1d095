// Package topic provides event-name types and helpers for the event bus.
//
// # Names
//
// An event name is a plain string. Attribute stores publish one name per
// changed attribute plus a coalesced name for the whole wave:
//
//	change:zoom     - the "zoom" attribute changed
//	change          - a wave of attribute changes settled
//	invalid         - validation rejected a set
//	update, reject  - an agent task resolved or failed
//
// # Lists
//
// Anywhere the bus accepts a Topic, the value may hold several names
// separated by whitespace:
//
//	bus.Subscribe("change:zoom change:center", h, nil)
//
// # Wildcard
//
// The name "all" is reserved. Subscribers on All receive every event
// published on the bus, after the subscribers of the event's own name.
package topic
