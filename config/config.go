// Package config loads the refine service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/models"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAPIKey   = "REFINE_API_KEY"
	EnvModel    = "REFINE_MODEL"
	EnvProvider = "REFINE_PROVIDER"
)

// Config is the full service configuration.
type Config struct {
	Refine refine.Config `yaml:"refine"`
	Model  Model         `yaml:"model"`
	Server Server        `yaml:"server"`
	Log    Log           `yaml:"log"`
}

// Model selects the backend used for both roles.
type Model struct {
	Provider string `yaml:"provider,omitempty"`

	// Name is the model name. Empty means the provider's default.
	Name    string `yaml:"name,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key. REFINE_API_KEY wins
	// when set.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// APIKey is resolved from the environment by Load and never read from the file.
	APIKey string `yaml:"-"`
}

// Server holds HTTP transport settings.
type Server struct {
	Addr string `yaml:"addr,omitempty"`
}

// Log holds logging settings. Level is "debug", "info", "warn" or "error".
type Log struct {
	Level string `yaml:"level,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Refine: refine.DefaultConfig(),
		Model: Model{
			Provider:  models.ProviderOllama,
			APIKeyEnv: "GITHUB_TOKEN",
		},
		Server: Server{Addr: ":8000"},
		Log:    Log{Level: "info"},
	}
}

// Load reads the YAML file at path over Default and applies environment overrides. A missing
// file is not an error. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Refine = cfg.Refine.WithDefaults()
	if err := cfg.Refine.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProvider); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Name = v
	}
	c.Model.APIKey = os.Getenv(EnvAPIKey)
	if c.Model.APIKey == "" && c.Model.APIKeyEnv != "" {
		c.Model.APIKey = os.Getenv(c.Model.APIKeyEnv)
	}
}

// Settings converts the model section into models.Settings.
func (m Model) Settings() models.Settings {
	return models.Settings{
		Provider: m.Provider,
		Name:     m.Name,
		BaseURL:  m.BaseURL,
		APIKey:   m.APIKey,
	}
}
