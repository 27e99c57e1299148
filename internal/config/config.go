package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the agent's own settings, stored as YAML next to its
// resources.
type Config struct {
	Version      int        `yaml:"version" json:"version"`
	Host         HostConfig `yaml:"host" json:"host"`
	ResourcesDir string     `yaml:"resources_dir,omitempty" json:"resources_dir,omitempty"`
	Workers      int        `yaml:"workers" json:"workers"`
	Ignore       []string   `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	LogLevel     string     `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// HostConfig identifies the editor the agent reports on behalf of.
type HostConfig struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Host: HostConfig{
			Name:    "editor",
			Version: "unknown",
		},
		Workers:  4,
		LogLevel: "info",
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the YAML left empty.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Host.Name == "" {
		c.Host.Name = defaults.Host.Name
	}
	if c.Host.Version == "" {
		c.Host.Version = defaults.Host.Version
	}
	if c.Workers == 0 {
		c.Workers = defaults.Workers
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// Save writes the configuration to path.
func (c Config) Save(path string) error {
	buf, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
