package attrs

import (
	"maps"
	"slices"
)

// Input is the argument of Set: a SingleAssignment or a BatchAssignment.
type Input interface {
	pairs() []pair
}

type pair struct {
	key   string
	value any
}

// SingleAssignment sets one key.
type SingleAssignment struct {
	Key   string
	Value any
}

// Assign returns the input setting key to value.
func Assign(key string, value any) SingleAssignment {
	return SingleAssignment{Key: key, Value: value}
}

func (a SingleAssignment) pairs() []pair {
	return []pair{{key: a.Key, value: a.Value}}
}

// BatchAssignment sets several keys in one call. Keys are applied in
// sorted order.
type BatchAssignment map[string]any

// Batch returns the input setting every key of m.
func Batch(m map[string]any) BatchAssignment {
	return BatchAssignment(m)
}

func (b BatchAssignment) pairs() []pair {
	keys := slices.Sorted(maps.Keys(b))
	out := make([]pair, len(keys))
	for i, k := range keys {
		out[i] = pair{key: k, value: b[k]}
	}
	return out
}

// Options modify a single Set.
type Options struct {
	// Silent suppresses change events. The changed set is still updated.
	Silent bool

	// Unset removes the given keys instead of setting them.
	Unset bool

	// Validate runs the store's validator before applying the input.
	Validate bool

	// ValidationError is filled in on the options passed to "invalid"
	// handlers.
	ValidationError error

	// Source is free-form provenance for handlers, such as a file path.
	Source string
}
