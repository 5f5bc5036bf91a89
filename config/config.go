// Package config loads the server configuration from a YAML file and lets
// environment variables override it.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WORKFLOW_SERVER_PORT.
const EnvPrefix = "WORKFLOW"

// Store types.
const (
	StoreNone     = ""
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// ServerConfig holds the HTTP listener details.
type ServerConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects and configures the workflow store. The URLs are also
// read from the bare DATABASE_URL and REDIS_URL variables.
type StoreConfig struct {
	Type        string `yaml:"type"`
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`
	RedisURL    string `yaml:"redis_url" envconfig:"REDIS_URL"`
	KeyPrefix   string `yaml:"key_prefix" split_words:"true"`
}

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error; an empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected store has what it needs.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	switch c.Store.Type {
	case StoreNone:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("config: store type postgres needs database_url")
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("config: store type redis needs redis_url")
		}
	default:
		return fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}
	return nil
}

// Address is the host:port the server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Hostname, c.Server.Port)
}
