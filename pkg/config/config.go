package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	LogLevel        string
	SessionDir      string
	WallBounce      *WallBounceConfig
	ConfigDir       string
}

// FileConfig represents the structure of ~/.wallbounce/config.yaml.
// API keys are read from the environment only.
type FileConfig struct {
	LogLevel   string `yaml:"log_level"`
	SessionDir string `yaml:"session_dir"`
}

// Load reads configuration from the config directory and environment variables.
func Load() (*Config, error) {
	return load("")
}

// LoadWithFile loads config with a specific orchestration file.
func LoadWithFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	return load(path)
}

func load(wallBouncePath string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		DeepSeekAPIKey:  os.Getenv("DEEPSEEK_API_KEY"),
		LogLevel:        getEnvOrDefault("WALLBOUNCE_LOG_LEVEL", fileConfig.LogLevel),
		SessionDir:      fileConfig.SessionDir,
		ConfigDir:       configDir,
	}
	if cfg.SessionDir == "" {
		cfg.SessionDir = filepath.Join(configDir, "sessions")
	}

	if wallBouncePath == "" {
		wallBouncePath = filepath.Join(configDir, "wallbounce.yaml")
		if _, err := os.Stat(wallBouncePath); err != nil {
			cfg.WallBounce = DefaultWallBounceConfig()
			return cfg, nil
		}
	}

	wb, err := LoadWallBounceConfig(wallBouncePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load orchestration config from %s: %w", wallBouncePath, err)
	}
	cfg.WallBounce = wb

	return cfg, nil
}

// HasAdapter returns true if the adapter can be constructed with the current keys.
func (c *Config) HasAdapter(name string) bool {
	switch strings.ToLower(name) {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "mock", "cli":
		return true
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".wallbounce")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return configDir, nil
}
