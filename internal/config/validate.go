package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join so an operator can fix a config file in
// one pass.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateMemory(cfg.Memory)...)
	errs = append(errs, validateProvider("provider", cfg.Provider.BaseURL, cfg.Provider.Model)...)
	if cfg.Summarizer != nil {
		errs = append(errs, validateProvider("summarizer", cfg.Summarizer.BaseURL, cfg.Summarizer.Model)...)
	}
	errs = append(errs, validateTokens(cfg.Tokens)...)

	return errors.Join(errs...)
}

func validateLog(log LogConfig) []error {
	var errs []error
	switch log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: log.level %q is not one of debug, info, warn, error", log.Level))
	}
	switch log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format %q is not one of text, json", log.Format))
	}
	return errs
}

func validateMemory(mem MemoryConfig) []error {
	var errs []error

	// The same triple check the engine applies at construction; repeated
	// here so `memwell config check` catches it without building the app.
	if err := mem.Compaction.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch mem.Store.Driver {
	case "", "memory":
	case "sqlite":
		if mem.Store.Path == "" {
			errs = append(errs, errors.New("config: memory.store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: memory.store.driver %q is not one of memory, sqlite", mem.Store.Driver))
	}

	return errs
}

func validateProvider(section, baseURL, model string) []error {
	var errs []error
	if baseURL == "" {
		errs = append(errs, fmt.Errorf("config: %s.base_url is required", section))
	}
	if model == "" {
		errs = append(errs, fmt.Errorf("config: %s.model is required", section))
	}
	return errs
}

func validateTokens(tok TokensConfig) []error {
	var errs []error
	switch tok.Estimator {
	case "", "chars", "tiktoken":
	default:
		errs = append(errs, fmt.Errorf("config: tokens.estimator %q is not one of chars, tiktoken", tok.Estimator))
	}
	if tok.CharsPerToken < 0 {
		errs = append(errs, errors.New("config: tokens.chars_per_token must not be negative"))
	}
	return errs
}
