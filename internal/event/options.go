package event

import "github.com/rs/zerolog"

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// owner is the default invocation context and the context used for
	// ListenTo registrations.
	owner any

	// isolate recovers handler panics and keeps dispatching past failures.
	isolate bool

	logger zerolog.Logger
}

// defaultBusConfig returns the default configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		logger: zerolog.Nop(),
	}
}

// WithOwner sets the object the bus belongs to. Types embedding a *Bus
// pass themselves so handlers receive the embedding value as context.
func WithOwner(owner any) BusOption {
	return func(c *busConfig) {
		c.owner = owner
	}
}

// WithIsolation enables per-handler panic recovery. An isolated bus
// invokes every handler and returns their failures joined.
func WithIsolation(enabled bool) BusOption {
	return func(c *busConfig) {
		c.isolate = enabled
	}
}

// WithLogger sets the logger for subscription and dispatch diagnostics.
func WithLogger(logger zerolog.Logger) BusOption {
	return func(c *busConfig) {
		c.logger = logger
	}
}
