package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ndaredline/internal/domain"
)

// DefaultCollectionEnv names the environment variable holding the default
// vector store id produced by `nda provision`.
const DefaultCollectionEnv = "DEFAULT_VECTOR_STORE_ID"

// OracleConfig holds configuration for the OpenAI Responses API client.
type OracleConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns the configured client timeout; zero leaves the client default.
func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RedlineConfig bounds how many clause redlines may be in flight at once.
type RedlineConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// OutputConfig controls where reports are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Suffix string `yaml:"suffix"`
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Oracle  OracleConfig  `yaml:"oracle"`
	Redline RedlineConfig `yaml:"redline"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	// UserCollections maps user ids to their custom playbook collection.
	UserCollections map[string]string `yaml:"user_collections,omitempty"`
}

// Env carries the secrets and ids sourced from the process environment.
type Env struct {
	APIKey              string
	DefaultCollectionID string
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/nda/config.yaml.
// If neither exists, it writes defaults to ~/.config/nda/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDotEnv loads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadEnv reads the oracle credential and the default collection id.
// A missing value is a configuration error.
func LoadEnv(cfg *AppConfig) (Env, error) {
	return loadEnv(cfg, os.Getenv)
}

// LoadAPIKey reads only the oracle credential; provisioning needs no collection id.
func LoadAPIKey(cfg *AppConfig) (string, error) {
	key := strings.TrimSpace(os.Getenv(cfg.Oracle.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%w: %s not set in environment or .env file", domain.ErrConfiguration, cfg.Oracle.APIKeyEnv)
	}
	return key, nil
}

func loadEnv(cfg *AppConfig, getenv func(string) string) (Env, error) {
	env := Env{
		APIKey:              strings.TrimSpace(getenv(cfg.Oracle.APIKeyEnv)),
		DefaultCollectionID: strings.TrimSpace(getenv(DefaultCollectionEnv)),
	}
	var missing []string
	if env.APIKey == "" {
		missing = append(missing, cfg.Oracle.APIKeyEnv)
	}
	if env.DefaultCollectionID == "" {
		missing = append(missing, DefaultCollectionEnv)
	}
	if len(missing) > 0 {
		return Env{}, fmt.Errorf("%w: %s not set in environment or .env file", domain.ErrConfiguration, strings.Join(missing, ", "))
	}
	return env, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "nda", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Oracle.APIKeyEnv == "" {
		cfg.Oracle.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o"
	}
	if cfg.Redline.Concurrency <= 0 {
		cfg.Redline.Concurrency = 1
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output_analysis"
	}
	if cfg.Output.Suffix == "" {
		cfg.Output.Suffix = "_analysis.md"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
