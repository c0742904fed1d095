package agent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/event"
)

// Option configures an Agent.
type Option func(*agentConfig)

type agentConfig struct {
	ctx     context.Context
	logger  zerolog.Logger
	busOpts []event.BusOption
}

func defaultAgentConfig() agentConfig {
	return agentConfig{
		ctx:    context.Background(),
		logger: zerolog.Nop(),
	}
}

// WithContext sets the parent of every task context.
func WithContext(ctx context.Context) Option {
	return func(c *agentConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the logger for the agent and its bus.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}

// WithBusOptions passes options to the embedded bus.
func WithBusOptions(opts ...event.BusOption) Option {
	return func(c *agentConfig) {
		c.busOpts = append(c.busOpts, opts...)
	}
}
