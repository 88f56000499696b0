package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultSandboxRoot is the directory all file operations are confined to.
const DefaultSandboxRoot = "/app/sandbox"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Sandbox    SandboxConfig
	Embeddings EmbeddingsConfig
	Heartbeat  HeartbeatConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds the sandbox root directory.
type SandboxConfig struct {
	Root string `envconfig:"SANDBOX_ROOT" default:"/app/sandbox"`
}

// EmbeddingsConfig holds the external embedding service configuration.
type EmbeddingsConfig struct {
	URL     string        `envconfig:"EMBEDDINGS_URL" default:""`
	Model   string        `envconfig:"EMBEDDINGS_MODEL" default:"all-MiniLM-L6-v2"`
	Timeout time.Duration `envconfig:"EMBEDDINGS_TIMEOUT" default:"15s"`
}

// HeartbeatConfig holds the background heartbeat loop configuration.
type HeartbeatConfig struct {
	Enabled            bool          `envconfig:"HEARTBEAT_ENABLED" default:"true"`
	Interval           time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"5m"`
	ReflectionInterval time.Duration `envconfig:"REFLECTION_INTERVAL" default:"1h"`
	ActiveStart        string        `envconfig:"HEARTBEAT_ACTIVE_START" default:""`
	ActiveEnd          string        `envconfig:"HEARTBEAT_ACTIVE_END" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	RingSize    int    `envconfig:"LOG_RING_SIZE" default:"1000"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			Root: DefaultSandboxRoot,
		},
		Embeddings: EmbeddingsConfig{
			Model:   "all-MiniLM-L6-v2",
			Timeout: 15 * time.Second,
		},
		Heartbeat: HeartbeatConfig{
			Enabled:            true,
			Interval:           5 * time.Minute,
			ReflectionInterval: time.Hour,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			RingSize:    1000,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
