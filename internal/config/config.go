// Package config loads carl's configuration from carl.yml with CARL_*
// environment overrides layered on top.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// CanvasConfig points at the Canvas instance.
type CanvasConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Token   string `yaml:"token" koanf:"token"`
}

// LLMConfig selects the optional chat backend. Provider may be "ollama",
// "openai", or "none"; carl runs keyword-only without one.
type LLMConfig struct {
	Provider       string `yaml:"provider" koanf:"provider"`
	Model          string `yaml:"model" koanf:"model"`
	Host           string `yaml:"host" koanf:"host"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// Config is the top-level configuration, corresponding to carl.yml.
type Config struct {
	Canvas CanvasConfig `yaml:"canvas" koanf:"canvas"`
	LLM    LLMConfig    `yaml:"llm" koanf:"llm"`
	Server ServerConfig `yaml:"server" koanf:"server"`
}

// DefaultConfig returns a Config with sensible defaults: a local Ollama
// backend and the usual dev port.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "ollama",
			Model:          "llama3",
			Host:           "http://localhost:11434",
			TimeoutSeconds: 30,
		},
		Server: ServerConfig{
			Port: 3000,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CARL_CANVAS_TOKEN -> canvas.token).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// CARL_CANVAS_TOKEN -> canvas.token; only the first underscore splits
	// sections so keys like llm.timeout_seconds survive.
	if err := k.Load(env.Provider("CARL_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "CARL_"))
		return strings.Join(strings.SplitN(key, "_", 2), ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path. The file is
// user-only: it holds the Canvas token.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[string]bool{
	"ollama": true,
	"openai": true,
	"none":   true,
	"":       true,
}

// Validate checks that the configuration can actually drive the server.
func (c *Config) Validate() error {
	if c.Canvas.BaseURL == "" {
		return fmt.Errorf("canvas.base_url is required")
	}
	u, err := url.Parse(c.Canvas.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("canvas.base_url %q is not a valid URL", c.Canvas.BaseURL)
	}
	if c.Canvas.Token == "" {
		return fmt.Errorf("canvas.token is required")
	}

	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q: must be one of ollama, openai, none", c.LLM.Provider)
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be non-negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}
