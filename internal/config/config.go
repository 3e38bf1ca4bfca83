// Package config loads server configuration from YAML with sane defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Storage selects and tunes the session snapshot backend.
type Storage struct {
	// Backend is one of "memory", "file", or "redis".
	Backend string `yaml:"backend"`

	// Dir is the snapshot directory for the file backend.
	Dir string `yaml:"dir"`

	// EncryptionKey, when set, enables at-rest encryption of snapshots.
	// Base64-encoded 32-byte key; FallbackKeys accept reads during rotation.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`

	// PIIPatterns are regular expressions masked out of snapshot free text.
	PIIPatterns []string `yaml:"pii_patterns"`
}

// Redis holds the connection settings for the redis storage backend.
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Engine holds workflow tuning knobs.
type Engine struct {
	RunRetries    int `yaml:"run_retries"`
	Regenerations int `yaml:"regenerations"`
	QueueSize     int `yaml:"queue_size"`
}

// Config is the root server configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Redis   Redis   `yaml:"redis"`
	Log     Log     `yaml:"log"`
	Engine  Engine  `yaml:"engine"`
	Catalog string  `yaml:"catalog"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Server:  Server{Addr: ":8080"},
		Storage: Storage{Backend: "memory"},
		Redis: Redis{
			Addr:    "localhost:6379",
			LockTTL: 30 * time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
		Engine: Engine{
			RunRetries:    3,
			Regenerations: 2,
			QueueSize:     64,
		},
		Catalog: "catalog.yaml",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Engine.RunRetries < 0 {
		return fmt.Errorf("engine.run_retries must be non-negative")
	}
	if c.Engine.Regenerations < 0 {
		return fmt.Errorf("engine.regenerations must be non-negative")
	}
	if c.Catalog == "" {
		return fmt.Errorf("catalog path is required")
	}
	return nil
}
