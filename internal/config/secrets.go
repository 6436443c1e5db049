package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets.yaml.
const (
	EnvPassword     = "TRITO_PASSWORD"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// Secrets holds the access password and provider API keys.
// String and GoString redact every value so a Secrets can be passed to a
// logger or fmt verb without leaking.
type Secrets struct {
	Password     string `yaml:"password"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
}

func redact(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "<set>"
}

func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{password:%s openai_api_key:%s gemini_api_key:%s}",
		redact(s.Password), redact(s.OpenAIAPIKey), redact(s.GeminiAPIKey))
}

func (s Secrets) GoString() string {
	return s.String()
}

// GetSecretsPath returns the path to the secrets file
func GetSecretsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "secrets.yaml"), nil
}

// LoadSecrets reads secrets.yaml, if present, and applies environment
// overrides. A missing file is not an error; a missing password is
// reported by the caller that needs it.
func LoadSecrets() (Secrets, error) {
	var s Secrets

	path, err := GetSecretsPath()
	if err != nil {
		return s, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Secrets{}, fmt.Errorf("failed to parse secrets file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return s, fmt.Errorf("failed to read secrets file: %w", err)
	}

	s.applyEnv()
	return s, nil
}

func (s *Secrets) applyEnv() {
	if v, ok := os.LookupEnv(EnvPassword); ok {
		s.Password = v
	}
	if v, ok := os.LookupEnv(EnvOpenAIAPIKey); ok {
		s.OpenAIAPIKey = v
	}
	if v, ok := os.LookupEnv(EnvGeminiAPIKey); ok {
		s.GeminiAPIKey = v
	}
}

// SaveSecrets writes s to secrets.yaml with owner-only permissions.
func SaveSecrets(s Secrets) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "secrets.yaml"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}
