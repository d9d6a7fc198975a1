// Package config loads runtime configuration for both shop services.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds settings for the API service, the web frontend, and the
// backing database. Values come from an optional YAML file with SHOP_*
// environment variables layered on top.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Web      WebConfig      `yaml:"web"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig configures the API service listener and how the frontend
// reaches it.
type APIConfig struct {
	Host           string `yaml:"host" env:"SHOP_API_HOST"`
	Port           int    `yaml:"port" env:"SHOP_API_PORT"`
	BaseURL        string `yaml:"base_url" env:"SHOP_API_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"SHOP_API_TIMEOUT_SECONDS"`
}

// WebConfig configures the web frontend listener.
type WebConfig struct {
	Host string `yaml:"host" env:"SHOP_WEB_HOST"`
	Port int    `yaml:"port" env:"SHOP_WEB_PORT"`
}

// DatabaseConfig selects the SQL driver and data source.
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"SHOP_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"SHOP_DB_DSN"`
	Init   bool   `yaml:"init" env:"SHOP_DB_INIT"`
}

// LoggingConfig configures the logrus logger shared by both binaries.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SHOP_LOG_LEVEL"`
	Format string `yaml:"format" env:"SHOP_LOG_FORMAT"`
}

// Default returns the configuration used when no file or environment
// overrides are present. Ports match the original deployment: API on
// 8000, frontend on 8001.
func Default() Config {
	return Config{
		API: APIConfig{
			Port:           8000,
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Web: WebConfig{
			Port: 8001,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "shop.db",
			Init:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path (missing file is not an error) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.API.Port == 0 {
		return fmt.Errorf("api: port is required")
	}
	if c.Web.Port == 0 {
		return fmt.Errorf("web: port is required")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}
	return nil
}

// APITimeout returns the inter-service call timeout as a duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// APIAddr returns the API service listen address.
func (c Config) APIAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// WebAddr returns the web frontend listen address.
func (c Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}
