// Package attrs provides Store, a change-tracked attribute map that
// publishes its changes through an embedded event bus.
//
// # Change events
//
// A Set that changes at least one attribute publishes "change:<key>" for
// each changed key, with (store, newValue, options) as arguments, followed
// by a single "change" with (store, options). Sets made from inside those
// handlers are merged into the same wave: they publish their own
// "change:<key>" events immediately, and the outermost Set publishes one
// more "change" for them once the current one returns.
//
// During a wave ChangedAttributes reports every attribute that differs
// from its value when the outermost Set began, and Previous reports that
// value.
//
// # Equality
//
// A key counts as changed only when its new value is not Equal to the old
// one, so setting a freshly built but identical slice or map publishes
// nothing.
package attrs
