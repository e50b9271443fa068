// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreJSONFile = "jsonfile"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	Port int `yaml:"port"`

	Store struct {
		Backend string `yaml:"backend"`
		// Path is the database file for jsonfile/sqlite backends.
		Path string `yaml:"path"`
		// DSN is the connection string for the postgres backend.
		DSN string `yaml:"dsn"`
	} `yaml:"store"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`
}

// Default returns the built-in defaults.
func Default() Config {
	var cfg Config
	cfg.Port = 6020
	cfg.Store.Backend = StoreJSONFile
	cfg.Store.Path = "db.json"
	cfg.NATS.URL = "nats://localhost:4222"
	return cfg
}

// Load reads path (if non-empty) over the defaults, then applies env
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = getEnv("STORE_PATH", cfg.Store.Path)
	cfg.Store.DSN = getEnv("STORE_DSN", cfg.Store.DSN)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Subject = getEnv("NATS_SUBJECT", cfg.NATS.Subject)
	if v := os.Getenv("NATS_ENABLED"); v != "" {
		cfg.NATS.Enabled = v == "1" || v == "true"
	}

	switch cfg.Store.Backend {
	case StoreJSONFile, StoreSQLite, StorePostgres:
	default:
		return cfg, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
