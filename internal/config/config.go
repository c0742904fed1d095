package config

import "time"

// Config holds all process configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" validate:"required"`
	Bus     BusConfig     `mapstructure:"bus"`
	Source  SourceConfig  `mapstructure:"source"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// BusConfig contains event bus settings applied to every bus the process
// creates.
type BusConfig struct {
	// Isolate recovers handler panics and keeps dispatching past failures.
	Isolate bool `mapstructure:"isolate"`
}

// SourceConfig contains attribute file settings.
type SourceConfig struct {
	// Path is the attribute file to load and watch.
	Path string `mapstructure:"path"`

	// Format overrides detection by extension.
	Format string `mapstructure:"format" validate:"omitempty,oneof=toml yaml yml json"`

	// Debounce is the quiet period after a write before re-applying.
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Source: SourceConfig{
			Debounce: 100 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "statecore",
		},
	}
}
