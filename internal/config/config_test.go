package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sednafx/memwell/internal/compactor"
	"github.com/sednafx/memwell/modules/provider/openai"
)

const minimalYAML = `
version: "1"
memory:
  compaction:
    max_messages: 20
    compact_threshold: 8
    messages_to_compact: 4
provider:
  base_url: "https://api.openai.com/v1"
  api_key: "${MEMWELL_TEST_KEY:-test-key}"
  model: "gpt-4o-mini"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memwell.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Version != "1" {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.Provider.Model != "gpt-4o-mini" {
		t.Errorf("Provider.Model = %q", cfg.Provider.Model)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want default expansion", cfg.Provider.APIKey)
	}
	if cfg.Memory.Compaction.CompactThreshold != 8 {
		t.Errorf("CompactThreshold = %d", cfg.Memory.Compaction.CompactThreshold)
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	t.Setenv("MEMWELL_TEST_KEY", "from-env")

	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.Provider.APIKey)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
version: "1"
provider:
  api_key: "${MEMWELL_DEFINITELY_UNSET_VAR}"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "MEMWELL_DEFINITELY_UNSET_VAR") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func validConfig() *Config {
	return &Config{
		Version: "1",
		Memory: MemoryConfig{
			Compaction: compactor.Config{
				MaxMessages:       20,
				CompactThreshold:  8,
				MessagesToCompact: 4,
			},
		},
		Provider: openai.Config{
			BaseURL: "https://api.openai.com/v1",
			APIKey:  "k",
			Model:   "gpt-4o-mini",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(_ *Config) {},
		},
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: "version field is required",
		},
		{
			name:    "unsupported version",
			mutate:  func(c *Config) { c.Version = "2" },
			wantErr: "unsupported version",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "invalid compaction triple",
			mutate:  func(c *Config) { c.Memory.Compaction.CompactThreshold = 30 },
			wantErr: "compact_threshold",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Memory.Store.Driver = "sqlite" },
			wantErr: "memory.store.path",
		},
		{
			name:    "unknown store driver",
			mutate:  func(c *Config) { c.Memory.Store.Driver = "redis" },
			wantErr: "memory.store.driver",
		},
		{
			name:    "missing provider base_url",
			mutate:  func(c *Config) { c.Provider.BaseURL = "" },
			wantErr: "provider.base_url",
		},
		{
			name:    "missing provider model",
			mutate:  func(c *Config) { c.Provider.Model = "" },
			wantErr: "provider.model",
		},
		{
			name: "summarizer missing model",
			mutate: func(c *Config) {
				c.Summarizer = &openai.Config{BaseURL: "https://api.openai.com/v1"}
			},
			wantErr: "summarizer.model",
		},
		{
			name:    "unknown estimator",
			mutate:  func(c *Config) { c.Tokens.Estimator = "words" },
			wantErr: "tokens.estimator",
		},
		{
			name:    "negative chars per token",
			mutate:  func(c *Config) { c.Tokens.CharsPerToken = -1 },
			wantErr: "chars_per_token",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolvePath_EnvWins(t *testing.T) {
	t.Setenv("MEMWELL_CONFIG", "/tmp/custom.yaml")

	path, err := ResolvePath()
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if path != "/tmp/custom.yaml" {
		t.Errorf("path = %q", path)
	}
}

func TestResolvePath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MEMWELL_CONFIG", "")

	target := filepath.Join(dir, "memwell", "memwell.yaml")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(target, []byte("version: \"1\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, err := ResolvePath()
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}
}
