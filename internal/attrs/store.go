package attrs

import (
	"errors"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/event"
	"github.com/dshills/statecore/internal/event/topic"
)

// Store is a change-tracked attribute map.
//
// A Store is not safe for concurrent use; drive it from the loop goroutine.
type Store struct {
	*event.Bus

	attributes map[string]any

	// previous is the snapshot taken when the outermost Set began.
	previous map[string]any

	// changed holds the attributes that differ from previous.
	changed map[string]any

	// changing is set while a Set is in progress.
	changing bool

	// pending holds the options of the latest re-entrant Set that still
	// owes a "change" event.
	pending *Options

	validationError error
	validator       Validator

	config storeConfig
	logger zerolog.Logger

	// Stats
	sets    atomic.Uint64
	changes atomic.Uint64
	waves   atomic.Uint64
	invalid atomic.Uint64
}

// New creates a store holding initial, after the configured parse and
// defaults. The initial attributes do not count as changes.
func New(initial map[string]any, opts ...Option) (*Store, error) {
	config := defaultStoreConfig()
	for _, opt := range opts {
		opt(&config)
	}

	s := &Store{
		attributes: make(map[string]any),
		changed:    make(map[string]any),
		validator:  config.validator,
		config:     config,
		logger:     config.logger.With().Str("component", "attrs").Logger(),
	}

	busOpts := append([]event.BusOption{
		event.WithOwner(s),
		event.WithLogger(config.logger),
	}, config.busOpts...)
	s.Bus = event.New(busOpts...)

	attrs := maps.Clone(initial)
	if config.parse != nil {
		attrs = config.parse(attrs)
	}
	merged := maps.Clone(config.defaults)
	if merged == nil {
		merged = make(map[string]any, len(attrs))
	}
	maps.Copy(merged, attrs)

	if err := s.Set(Batch(merged), Options{Validate: config.validateOnCreate}); err != nil {
		return nil, err
	}
	s.changed = make(map[string]any)
	return s, nil
}

// Get returns the value of key, or nil.
func (s *Store) Get(key string) any {
	return s.attributes[key]
}

// Has returns true if key is present with a non-nil value.
func (s *Store) Has(key string) bool {
	return s.attributes[key] != nil
}

// SetValue is shorthand for Set(Assign(key, value), opts).
func (s *Store) SetValue(key string, value any, opts Options) error {
	return s.Set(Assign(key, value), opts)
}

// Set applies in and publishes the resulting change events.
//
// With Options.Validate and a registered validator, the prospective
// attributes are validated first; a rejection publishes "invalid" and
// returns a *ValidationError without touching the store.
//
// A handler error aborts the remaining events and is returned. The
// outermost Set always leaves the store ready for the next one.
func (s *Store) Set(in Input, opts Options) error {
	if in == nil {
		return nil
	}
	pairs := in.pairs()
	s.sets.Add(1)

	if err := s.validate(pairs, opts); err != nil {
		return err
	}

	changing := s.changing
	s.changing = true
	if !changing {
		s.previous = maps.Clone(s.attributes)
		s.changed = make(map[string]any)
		defer func() {
			s.pending = nil
			s.changing = false
		}()
	}

	var touched []string
	for _, p := range pairs {
		val := p.value
		if opts.Unset {
			val = nil
		}

		if differs(s.attributes, p.key, val, !opts.Unset) {
			touched = append(touched, p.key)
		}
		if differs(s.previous, p.key, val, !opts.Unset) {
			s.changed[p.key] = val
		} else {
			delete(s.changed, p.key)
		}

		if opts.Unset {
			delete(s.attributes, p.key)
		} else {
			s.attributes[p.key] = val
		}
	}
	s.changes.Add(uint64(len(touched)))

	if !opts.Silent {
		if len(touched) > 0 {
			pending := opts
			s.pending = &pending
		}
		for _, key := range touched {
			if err := s.Publish(topic.Change(key), s, s.attributes[key], opts); err != nil {
				return err
			}
		}
	}

	if changing {
		if len(touched) > 0 {
			s.logger.Debug().Strs("keys", touched).Msg("coalesced into current wave")
		}
		return nil
	}

	if !opts.Silent {
		for s.pending != nil {
			waveOpts := *s.pending
			s.pending = nil
			s.waves.Add(1)
			if err := s.Publish(topic.Changed, s, waveOpts); err != nil {
				return err
			}
		}
	}
	return nil
}

// differs reports whether m disagrees with key holding val, or with key
// being absent when present is false. A key holding nil differs from a
// missing key.
func differs(m map[string]any, key string, val any, present bool) bool {
	old, ok := m[key]
	return ok != present || !Equal(old, val)
}

// Unset removes key.
func (s *Store) Unset(key string, opts Options) error {
	opts.Unset = true
	return s.Set(Assign(key, nil), opts)
}

// Clear removes every attribute in a single wave.
func (s *Store) Clear(opts Options) error {
	opts.Unset = true
	batch := make(BatchAssignment, len(s.attributes))
	for k := range s.attributes {
		batch[k] = nil
	}
	return s.Set(batch, opts)
}

// HasChanged reports whether the last wave changed anything, or, given
// keys, whether it changed any of them.
func (s *Store) HasChanged(keys ...string) bool {
	if len(keys) == 0 {
		return len(s.changed) > 0
	}
	for _, k := range keys {
		if _, ok := s.changed[k]; ok {
			return true
		}
	}
	return false
}

// ChangedAttributes returns a copy of the attributes changed by the last
// wave, or false if there are none.
func (s *Store) ChangedAttributes() (map[string]any, bool) {
	if !s.HasChanged() {
		return nil, false
	}
	return maps.Clone(s.changed), true
}

// ChangedAttributesFrom returns the entries of diff that differ from the
// store, or false if none do. While a Set is in progress the comparison is
// against the attributes as they were when it began.
func (s *Store) ChangedAttributesFrom(diff map[string]any) (map[string]any, bool) {
	if diff == nil {
		return s.ChangedAttributes()
	}
	old := s.attributes
	if s.changing {
		old = s.previous
	}

	var out map[string]any
	for k, v := range diff {
		if !differs(old, k, v, true) {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out, out != nil
}

// Previous returns the value of key before the last wave began.
func (s *Store) Previous(key string) any {
	return s.previous[key]
}

// PreviousAttributes returns a copy of the attributes before the last wave.
func (s *Store) PreviousAttributes() map[string]any {
	return maps.Clone(s.previous)
}

// Attributes returns a copy of the current attributes.
func (s *Store) Attributes() map[string]any {
	return maps.Clone(s.attributes)
}

// Keys returns the attribute keys in sorted order.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.attributes))
}

// Values returns the attribute values in key order.
func (s *Store) Values() []any {
	keys := s.Keys()
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = s.attributes[k]
	}
	return out
}

// Pick returns the attributes named by keys that are present.
func (s *Store) Pick(keys ...string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := s.attributes[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Omit returns the attributes except those named by keys.
func (s *Store) Omit(keys ...string) map[string]any {
	out := maps.Clone(s.attributes)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Len returns the number of attributes.
func (s *Store) Len() int {
	return len(s.attributes)
}

// IsValid runs the validator against the current attributes. Like a
// rejected Set, a failure publishes "invalid".
func (s *Store) IsValid(opts Options) error {
	opts.Validate = true
	return s.validate(nil, opts)
}

// ValidationError returns the error of the last validation, or nil.
func (s *Store) ValidationError() error {
	return s.validationError
}

// Clone returns a new store with the same attributes and configuration
// but no subscriptions.
func (s *Store) Clone() (*Store, error) {
	config := s.config
	opts := []Option{
		WithLogger(config.logger),
		WithValidator(s.validator),
		WithBusOptions(config.busOpts...),
	}
	return New(s.Attributes(), opts...)
}

// Stats returns store statistics.
func (s *Store) Stats() Stats {
	return Stats{
		Sets:    s.sets.Load(),
		Changes: s.changes.Load(),
		Waves:   s.waves.Load(),
		Invalid: s.invalid.Load(),
	}
}

// Stats contains store statistics.
type Stats struct {
	// Sets is the number of Set calls, including rejected ones.
	Sets uint64

	// Changes is the number of attribute changes applied.
	Changes uint64

	// Waves is the number of "change" events published.
	Waves uint64

	// Invalid is the number of validation failures.
	Invalid uint64
}

// validate checks the attributes that would result from applying pairs.
func (s *Store) validate(pairs []pair, opts Options) error {
	if !opts.Validate || s.validator == nil {
		return nil
	}

	merged := maps.Clone(s.attributes)
	for _, p := range pairs {
		if opts.Unset {
			delete(merged, p.key)
		} else {
			merged[p.key] = p.value
		}
	}

	err := s.validator.Validate(merged)
	s.validationError = err
	if err == nil {
		return nil
	}

	s.invalid.Add(1)
	s.logger.Warn().Err(err).Str("source", opts.Source).Msg("validation failed")

	verr := &ValidationError{Err: err}
	opts.ValidationError = err
	if perr := s.Publish(topic.Invalid, s, err, opts); perr != nil {
		return errors.Join(verr, perr)
	}
	return verr
}
