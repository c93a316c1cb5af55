package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete agent configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Session  SessionConfig  `yaml:"session"`
	Download DownloadConfig `yaml:"download"`
	Printing PrintingConfig `yaml:"printing"`
	History  HistoryConfig  `yaml:"history"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds the local presentation API configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig holds the remote store configuration
type StoreConfig struct {
	Backend string      `yaml:"backend"` // redis or memory
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the remote store
type RedisConfig struct {
	Host          string        `yaml:"host"`
	Port          int           `yaml:"port"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// SessionConfig identifies this device to the remote store
type SessionConfig struct {
	UserID string `yaml:"user_id"`
	Token  string `yaml:"token"`
}

// DownloadConfig holds payload download settings
type DownloadConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// PrintingConfig holds print backend settings
type PrintingConfig struct {
	BackendPath      string   `yaml:"backend_path"`
	Printers         []string `yaml:"printers"`
	ValidatePayloads bool     `yaml:"validate_payloads"`
}

// HistoryConfig holds the local job journal settings
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig holds the presentation event queue settings
type EventsConfig struct {
	Buffer int `yaml:"buffer"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	switch c.Store.Backend {
	case "redis":
		if c.Store.Redis.Host == "" {
			return fmt.Errorf("store redis host is required")
		}
		if c.Store.Redis.Port < MinPort || c.Store.Redis.Port > MaxPort {
			return fmt.Errorf("invalid store redis port: %d (must be between %d and %d)", c.Store.Redis.Port, MinPort, MaxPort)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend: %q (must be redis or memory)", c.Store.Backend)
	}

	if c.Session.UserID == "" {
		return fmt.Errorf("session user_id is required")
	}

	if c.Session.Token == "" {
		return fmt.Errorf("session token is required")
	}

	if c.Download.Dir == "" {
		return fmt.Errorf("download dir is required")
	}

	if c.Printing.BackendPath == "" {
		return fmt.Errorf("printing backend_path is required")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history path is required when history is enabled")
	}

	return nil
}
