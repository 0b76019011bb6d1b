package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePath searches for a config file in standard locations:
// $MEMWELL_CONFIG, ./memwell.yaml, then the XDG config directory.
func ResolvePath() (string, error) {
	if env := os.Getenv("MEMWELL_CONFIG"); env != "" {
		return env, nil
	}

	candidates := []string{"memwell.yaml"}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "memwell", "memwell.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "memwell", "memwell.yaml"))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
