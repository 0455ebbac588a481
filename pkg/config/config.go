package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/tsanders/estimate-ai/pkg/reconcile"
	"github.com/tsanders/estimate-ai/pkg/schedule"
)

// Config represents the estimate-ai configuration
type Config struct {
	// Provider settings
	Provider ProviderConfig `yaml:"provider"`

	// HTML template and prompt locations
	Templates TemplatesConfig `yaml:"templates"`

	// Cost table repair rules
	Budget reconcile.Config `yaml:"budget"`

	// Schedule settings
	Schedule ScheduleConfig `yaml:"schedule"`

	// Web server settings
	Server ServerConfig `yaml:"server"`

	// PDF/HTML export settings
	Export ExportConfig `yaml:"export"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ProviderConfig holds AI provider settings
type ProviderConfig struct {
	Name        string  `yaml:"name"`        // openai, claude, or a preset (groq, ollama, ...)
	Model       string  `yaml:"model"`       // optional, provider-specific model
	BaseURL     string  `yaml:"base-url"`    // optional, OpenAI-compatible endpoint
	Temperature float64 `yaml:"temperature"` // 0 means provider default
	MaxTokens   int     `yaml:"max-tokens"`  // 0 means provider default

	// Keys are read from the environment only.
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
}

// TemplatesConfig holds template locations
type TemplatesConfig struct {
	Dir        string `yaml:"dir"`         // user HTML templates, hot-reloaded
	Default    string `yaml:"default"`     // template used when none is named
	PromptsDir string `yaml:"prompts-dir"` // <kind>.tmpl prompt overrides
}

// ScheduleConfig holds schedule settings
type ScheduleConfig struct {
	LeadDays int `yaml:"lead-days"` // days between today and the first stage
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ExportConfig holds export settings
type ExportConfig struct {
	ChromePath string        `yaml:"chrome-path"`
	Timeout    time.Duration `yaml:"timeout"`
	OutputDir  string        `yaml:"output-dir"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder instead of JSON
}

// Env is the environment overlay. Set values override the config file.
type Env struct {
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	Provider     string `env:"ESTIMATE_PROVIDER"`
	Model        string `env:"ESTIMATE_MODEL"`
	Addr         string `env:"ESTIMATE_ADDR"`
	TemplatesDir string `env:"ESTIMATE_TEMPLATES_DIR"`
	LogLevel     string `env:"ESTIMATE_LOG_LEVEL"`
	ChromePath   string `env:"CHROME_PATH"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name: "openai",
		},
		Templates: TemplatesConfig{
			Default: "standard",
		},
		Budget: reconcile.DefaultConfig(),
		Schedule: ScheduleConfig{
			LeadDays: schedule.DefaultLeadDays,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Export: ExportConfig{
			Timeout:   30 * time.Second,
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w\n\n"+
			"Please check that the file is valid YAML and follows the expected format.\n"+
			"See README.md for example configuration.", path, err)
	}

	return config, nil
}

// FindConfigFile searches for a config file in common locations
// Returns the path to the first config file found, or empty string if none found
func FindConfigFile() string {
	// Check current directory first
	candidates := []string{
		".estimate-ai.yaml",
		".estimate-ai.yml",
	}

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(homeDir, candidate)
			if fileExists(path) {
				return path
			}
		}
	}

	return ""
}

// LoadOrDefault attempts to load a config file, falling back to defaults
func LoadOrDefault() *Config {
	configPath := FindConfigFile()
	if configPath == "" {
		return DefaultConfig()
	}

	config, err := Load(configPath)
	if err != nil {
		// Log the error but return defaults
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n\n")
		return DefaultConfig()
	}

	return config
}

// ApplyEnv overlays environment variables onto the config. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var e Env
	var err error
	if environ == nil {
		err = env.Parse(&e)
	} else {
		err = env.ParseWithOptions(&e, env.Options{Environment: environ})
	}
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	c.Provider.OpenAIKey = e.OpenAIKey
	c.Provider.AnthropicKey = e.AnthropicKey
	setIf(&c.Provider.Name, e.Provider)
	setIf(&c.Provider.Model, e.Model)
	setIf(&c.Server.Addr, e.Addr)
	setIf(&c.Templates.Dir, e.TemplatesDir)
	setIf(&c.Logging.Level, e.LogLevel)
	setIf(&c.Export.ChromePath, e.ChromePath)
	return nil
}

// APIKey returns the key for the configured provider. Presets read their
// own key variable and yield "" here.
func (p ProviderConfig) APIKey() string {
	switch p.Name {
	case "claude", "anthropic":
		return p.AnthropicKey
	case "openai", "":
		return p.OpenAIKey
	}
	return ""
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
