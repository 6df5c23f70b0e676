package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models taskflow.yml.
type Config struct {
	Workspace string `yaml:"workspace"`
	Server    struct {
		Addr    string `yaml:"addr"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	JWT struct {
		Key             string `yaml:"key"`
		Issuer          string `yaml:"issuer"`
		Audience        string `yaml:"audience"`
		LifetimeMinutes int    `yaml:"lifetime_minutes"`
		RefreshDays     int    `yaml:"refresh_days"`
	} `yaml:"jwt"`
	Uploads struct {
		Dir string `yaml:"dir"`
	} `yaml:"uploads"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with taskflow init", path)
		}
		return nil, err
	}
	cfg, err := FromYAML(data)
	if err != nil {
		return nil, err
	}
	if cfg.Workspace == "" {
		cfg.Workspace = workspace
	}
	return cfg, nil
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config.server.addr is required")
	}
	if c.JWT.Key == "" {
		return fmt.Errorf("config.jwt.key is required")
	}
	if c.JWT.LifetimeMinutes < 0 {
		return fmt.Errorf("config.jwt.lifetime_minutes must not be negative")
	}
	if c.JWT.RefreshDays < 0 {
		return fmt.Errorf("config.jwt.refresh_days must not be negative")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("config.uploads.dir is required")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "taskflow.yml")
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(key string) string {
	return fmt.Sprintf(defaultTemplate, key)
}

// Default returns the default Config struct.
func Default(key string) *Config {
	cfg, _ := FromYAML([]byte(GenerateDefault(key)))
	return cfg
}

const defaultTemplate = `server:
  addr: ":8080"
  base_url: "http://localhost:8080"

jwt:
  key: "%s"
  issuer: "taskflow"
  audience: "taskflow-clients"
  lifetime_minutes: 30
  refresh_days: 15

uploads:
  dir: "uploads"
`
