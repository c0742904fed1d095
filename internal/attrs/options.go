package attrs

import (
	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/event"
)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	defaults         map[string]any
	parse            func(map[string]any) map[string]any
	validator        Validator
	validateOnCreate bool
	logger           zerolog.Logger
	busOpts          []event.BusOption
}

func defaultStoreConfig() storeConfig {
	return storeConfig{logger: zerolog.Nop()}
}

// WithDefaults sets values used for keys missing from the initial attributes.
func WithDefaults(defaults map[string]any) Option {
	return func(c *storeConfig) {
		c.defaults = defaults
	}
}

// WithParse transforms the initial attributes before defaults are applied.
func WithParse(fn func(map[string]any) map[string]any) Option {
	return func(c *storeConfig) {
		c.parse = fn
	}
}

// WithValidator registers the validator run by sets with Options.Validate.
func WithValidator(v Validator) Option {
	return func(c *storeConfig) {
		c.validator = v
	}
}

// WithValidateOnCreate validates the initial attributes.
func WithValidateOnCreate(enabled bool) Option {
	return func(c *storeConfig) {
		c.validateOnCreate = enabled
	}
}

// WithLogger sets the logger for the store and its bus.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithBusOptions passes options to the embedded bus.
func WithBusOptions(opts ...event.BusOption) Option {
	return func(c *storeConfig) {
		c.busOpts = append(c.busOpts, opts...)
	}
}
