// Package config provides process configuration for statecore.
//
// Configuration is resolved in three layers, later layers overriding
// earlier ones:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← STATECORE_LOG_LEVEL, ...
//	├─────────────────────────────┤
//	│  2. Config File             │  ← toml, yaml or json
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// Environment variables use the STATECORE_ prefix and underscores for
// nesting, so source.debounce is STATECORE_SOURCE_DEBOUNCE.
//
// The resolved Config is validated before Load returns it.
package config
