// Package config loads mcpmeshd configuration from YAML with environment
// variable expansion. Secrets (API keys) are expected via ${VAR} references
// or the provider SDKs' own environment variables, never inline.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete mcpmeshd configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Search    SearchConfig    `yaml:"search"`
	Resources ResourcesConfig `yaml:"resources"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	EnableCORS bool   `yaml:"enable_cors"`
}

// ModelConfig selects and tunes the completion backend.
type ModelConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai, anthropic, mock
	Name      string `yaml:"name"`     // provider-specific model id; empty for default
	APIKey    string `yaml:"api_key"`  // optional; SDK env vars are the usual path
	MaxTokens int64  `yaml:"max_tokens"`
}

// SearchConfig controls the web search and encyclopedia collaborators.
type SearchConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"-"`

	TimeoutRaw string `yaml:"timeout"` // duration string, parsed into Timeout
}

// ResourcesConfig declares the resource registry: a base directory and the
// closed set of logical name -> relative file mappings.
type ResourcesConfig struct {
	Dir   string            `yaml:"dir"`
	Files map[string]string `yaml:"files"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Addr: ":5000", EnableCORS: true},
		Model:   ModelConfig{Provider: "gemini", MaxTokens: 4096},
		Search:  SearchConfig{Enabled: true, Timeout: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads a configuration file, expanding ${VAR} environment references
// and parsing duration strings. Missing optional sections keep defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := envVarRe.ReplaceAllStringFunc(string(data), func(m string) string {
		name := envVarRe.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Search.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Search.TimeoutRaw)
		if err != nil {
			return nil, fmt.Errorf("parsing search.timeout: %w", err)
		}
		cfg.Search.Timeout = d
	}

	return cfg, nil
}
