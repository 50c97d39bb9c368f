// Package config handles Gather configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from --config flag) is checked first.
// Then: ./gather.yaml, ~/.config/gather/gather.yaml, /etc/gather/gather.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"gather.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gather", "gather.yaml"))
	}

	paths = append(paths, "/etc/gather/gather.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Gather configuration.
type Config struct {
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Weather  WeatherConfig  `yaml:"weather"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Calendar CalendarConfig `yaml:"calendar"`
	Memory   MemoryConfig   `yaml:"memory"`
	Agent    AgentConfig    `yaml:"agent"`
	DataDir  string         `yaml:"data_dir"`
	LogLevel string         `yaml:"log_level"`
}

// OpenAIConfig defines the LLM provider settings.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// WeatherConfig defines OpenWeatherMap settings.
type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the API endpoint (used in tests).
	BaseURL string `yaml:"base_url"`
}

// WebhookConfig defines the automation webhook target.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// CalendarConfig defines calendar write-boundary settings.
type CalendarConfig struct {
	// Timezone is the single fixed IANA zone applied when events are
	// written. Parsed timestamps carry no zone of their own.
	Timezone string `yaml:"timezone"`
}

// MemoryConfig bounds the per-user conversation store.
type MemoryConfig struct {
	// WindowSize is how many recent messages are exposed to the
	// agent's prompt context.
	WindowSize int `yaml:"window_size"`
	// MaxMessages caps the persisted message history per user.
	MaxMessages int `yaml:"max_messages"`
	// MaxToolCalls caps the persisted tool-call audit trail per user.
	MaxToolCalls int `yaml:"max_tool_calls"`
}

// AgentConfig bounds a single turn of the agent loop.
type AgentConfig struct {
	MaxIterations  int `yaml:"max_iterations"`
	TurnTimeoutSec int `yaml:"turn_timeout_sec"`
}

// Load reads configuration from a YAML file. ${VAR} references in the
// YAML are expanded from the environment, so callers that want dotenv
// support must load the .env file before calling Load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Calendar: CalendarConfig{
			Timezone: "UTC",
		},
		Memory: MemoryConfig{
			WindowSize:   20,
			MaxMessages:  100,
			MaxToolCalls: 200,
		},
		Agent: AgentConfig{
			MaxIterations:  10,
			TurnTimeoutSec: 120,
		},
		DataDir: "data",
	}
}
