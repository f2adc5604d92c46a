package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ALPHADOCS_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: ALPHADOCS_PORT -> port, etc.
	if err := k.Load(env.Provider("ALPHADOCS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ALPHADOCS_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validEnvs is the set of recognized environment values.
var validEnvs = map[Env]bool{
	EnvDevelopment: true,
	EnvProduction:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Environment != "" && !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment %q: must be development or production", c.Environment)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.IndexTTLMinutes < 0 {
		return fmt.Errorf("index_ttl_minutes must be non-negative")
	}
	if c.TransitionMillis < 0 {
		return fmt.Errorf("transition_millis must be non-negative")
	}
	if c.ContentCacheLimit <= 0 {
		return fmt.Errorf("content_cache_limit must be positive")
	}
	if c.Environment == EnvProduction && c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required in production")
	}
	return nil
}
