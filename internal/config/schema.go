// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for memwell.
package config

import (
	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/internal/gateway"
	"github.com/sednafx/memwell/modules/provider/openai"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Log controls the slog handler.
	Log LogConfig `yaml:"log"`

	// Server configures the HTTP gateway.
	Server gateway.Config `yaml:"server"`

	// Memory configures the turn store and the compaction policy.
	Memory MemoryConfig `yaml:"memory"`

	// Provider is the chat model every exchange is forwarded to.
	Provider openai.Config `yaml:"provider"`

	// Summarizer is the model used to condense compacted turns. Optional;
	// when absent, summaries are produced by the chat provider. A cheaper
	// model is the usual choice here.
	Summarizer *openai.Config `yaml:"summarizer,omitempty"`

	// Tokens selects the token estimator used for diagnostics.
	Tokens TokensConfig `yaml:"tokens"`

	// Maintenance configures the periodic compaction sweep.
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format"`
}

// MemoryConfig configures conversation storage and compaction.
type MemoryConfig struct {
	// Compaction is the policy triple. Invalid triples are rejected at
	// startup, not worked around at runtime.
	Compaction compactor.Config `yaml:"compaction"`

	// Store selects where turns live.
	Store StoreConfig `yaml:"store"`

	// WindowEnabled mounts the /chat comparison surface: a second memory
	// with plain window eviction and no compaction.
	WindowEnabled bool `yaml:"window_enabled"`
}

// StoreConfig selects the turn store backend.
type StoreConfig struct {
	// Driver is "memory" (default) or "sqlite".
	Driver string `yaml:"driver"`

	// Path is the database file path. Required for sqlite.
	Path string `yaml:"path"`
}

// TokensConfig selects the token estimator.
type TokensConfig struct {
	// Estimator is "chars" (default) or "tiktoken".
	Estimator string `yaml:"estimator"`

	// CharsPerToken tunes the chars estimator. Zero means the English
	// approximation of 4.
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// MaintenanceConfig configures the background compaction sweep.
type MaintenanceConfig struct {
	// SweepEnabled turns the cron sweep on.
	SweepEnabled bool `yaml:"sweep_enabled"`

	// SweepSchedule is a 5-field cron expression. Defaults to "*/5 * * * *".
	SweepSchedule string `yaml:"sweep_schedule"`
}
