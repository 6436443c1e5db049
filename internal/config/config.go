// Package config handles configuration and secrets for trito.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

const appDir = ".trito"

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// Config represents the user configuration
type Config struct {
	Provider string `json:"provider"`
	// Model is the provider model name. Empty means the provider default.
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature"`
	// BaseURL overrides the API endpoint for the openai and compat providers.
	BaseURL string `json:"base_url,omitempty"`
	// TimeoutSeconds bounds a single completion attempt.
	TimeoutSeconds int `json:"timeout_seconds"`
	// MaxRetries is the number of extra attempts after a retryable failure.
	MaxRetries      int            `json:"max_retries"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TranscriptDir   string         `json:"transcript_dir,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		Provider:        ProviderOpenAI,
		Temperature:     0.2,
		TimeoutSeconds:  60,
		MaxRetries:      2,
		Verbose:         false,
		CopyToClipboard: false,
		TranscriptDir:   filepath.Join(homeDir, appDir, "transcripts"),
		Markdown:        DefaultMarkdownConfig(),
	}
}

// AvailableProviders returns the provider names New understands.
func AvailableProviders() []string {
	return []string{ProviderOpenAI, ProviderCompat, ProviderGemini, ProviderEcho}
}

// Validate checks field ranges and the provider name.
func (c Config) Validate() error {
	if !slices.Contains(AvailableProviders(), c.Provider) {
		return fmt.Errorf("unknown provider %q (available: %v)", c.Provider, AvailableProviders())
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, appDir), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds secrets.yaml
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "trito.log"), nil
}

// GetTranscriptDir returns the transcript directory from config, creating it if necessary
func GetTranscriptDir(cfg Config) (string, error) {
	dir := cfg.TranscriptDir
	if dir == "" {
		configDir, err := GetConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(configDir, "transcripts")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	return dir, nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
