package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expected default provider to be 'openai', got '%s'", cfg.Provider)
	}

	if cfg.Temperature != 0.2 {
		t.Errorf("Expected Temperature to be 0.2, got %v", cfg.Temperature)
	}

	if cfg.Verbose != false {
		t.Errorf("Expected Verbose to be false, got %v", cfg.Verbose)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() returned error: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"echo provider", func(c *Config) { c.Provider = ProviderEcho }, false},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, true},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, true},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"no retries", func(c *Config) { c.MaxRetries = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if dir != filepath.Join(tmpDir, ".trito") {
		t.Errorf("GetConfigDir() = %s", dir)
	}
}

func TestPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	tests := []struct {
		name string
		fn   func() (string, error)
		base string
	}{
		{"config", GetConfigPath, "config.json"},
		{"secrets", GetSecretsPath, "secrets.yaml"},
		{"log", GetLogPath, "trito.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tt.fn()
			if err != nil {
				t.Fatalf("returned error: %v", err)
			}
			if !filepath.IsAbs(path) {
				t.Errorf("returned relative path: %s", path)
			}
			if filepath.Base(path) != tt.base {
				t.Errorf("base = %s, want %s", filepath.Base(path), tt.base)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	dir, err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() returned error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("Path is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("Directory permissions = %o, want 700", perm)
	}
}

func TestGetTranscriptDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	dir, err := GetTranscriptDir(Config{})
	if err != nil {
		t.Fatalf("GetTranscriptDir() returned error: %v", err)
	}
	if dir != filepath.Join(tmpDir, ".trito", "transcripts") {
		t.Errorf("GetTranscriptDir() = %s", dir)
	}

	custom := filepath.Join(tmpDir, "out")
	dir, err = GetTranscriptDir(Config{TranscriptDir: custom})
	if err != nil {
		t.Fatalf("GetTranscriptDir() returned error: %v", err)
	}
	if dir != custom {
		t.Errorf("GetTranscriptDir() = %s, want %s", dir, custom)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("custom transcript dir not created: %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Provider != DefaultConfig().Provider {
		t.Errorf("Provider = %s, want default", cfg.Provider)
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.Model = "gemini-2.5-flash"
	cfg.Verbose = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".trito", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}

	if saved.Provider != cfg.Provider {
		t.Errorf("Provider = %s, want %s", saved.Provider, cfg.Provider)
	}
	if saved.Model != cfg.Model {
		t.Errorf("Model = %s, want %s", saved.Model, cfg.Model)
	}
	if saved.Verbose != cfg.Verbose {
		t.Errorf("Verbose = %v, want %v", saved.Verbose, cfg.Verbose)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".trito")
	_ = os.MkdirAll(configDir, 0o700)

	// Partial file: unset fields keep their defaults.
	partial := `{"provider": "compat", "base_url": "http://localhost:8080/v1", "max_retries": 5}`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(partial), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}

	if cfg.Provider != ProviderCompat {
		t.Errorf("Provider = %s, want compat", cfg.Provider)
	}
	if cfg.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("BaseURL = %s", cfg.BaseURL)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want default 0.2", cfg.Temperature)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".trito")
	_ = os.MkdirAll(configDir, 0o700)

	invalidJSON := `{"invalid": json content`
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(invalidJSON), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("LoadConfig() with invalid JSON should return error")
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %s, want default", cfg.Provider)
	}
}
