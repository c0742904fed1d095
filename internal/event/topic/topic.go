package topic

import "strings"

// Topic is an event name, or a whitespace-separated list of event names.
type Topic string

// All is the wildcard name. Its subscribers receive every published event.
const All Topic = "all"

// Well-known event names.
const (
	// Changed is published once per settled wave of attribute changes.
	Changed Topic = "change"

	// Invalid is published when validation rejects a set.
	Invalid Topic = "invalid"

	// Submitted is published when an agent accepts a task for invocation.
	Submitted Topic = "submit"

	// Updated is published when an agent commits a task result.
	Updated Topic = "update"

	// Rejected is published when an agent task fails.
	Rejected Topic = "reject"

	// Errored is published when a handler of an agent outcome fails.
	Errored Topic = "error"
)

// ChangePrefix prefixes per-attribute change events.
const ChangePrefix = "change:"

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Names splits the topic into its individual event names.
// Returns nil for an empty or blank topic.
func (t Topic) Names() []Topic {
	fields := strings.Fields(string(t))
	if len(fields) == 0 {
		return nil
	}
	names := make([]Topic, len(fields))
	for i, f := range fields {
		names[i] = Topic(f)
	}
	return names
}

// IsList returns true if the topic holds more than one name.
func (t Topic) IsList() bool {
	return strings.ContainsAny(strings.TrimSpace(string(t)), " \t\n\r")
}

// IsAll returns true for the wildcard name.
func (t Topic) IsAll() bool {
	return t == All
}

// IsValid returns true if the topic holds at least one name.
func (t Topic) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Change returns the per-attribute change event name for key.
//
// Example: Change("zoom") -> "change:zoom"
func Change(key string) Topic {
	return Topic(ChangePrefix + key)
}

// Attribute returns the attribute key of a per-attribute change event.
// The second result is false if the topic is not a change event.
func (t Topic) Attribute() (string, bool) {
	s := string(t)
	if !strings.HasPrefix(s, ChangePrefix) || len(s) == len(ChangePrefix) {
		return "", false
	}
	return s[len(ChangePrefix):], true
}

// Join joins names into a list topic.
func Join(names ...Topic) Topic {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if n.IsValid() {
			parts = append(parts, strings.TrimSpace(string(n)))
		}
	}
	return Topic(strings.Join(parts, " "))
}
