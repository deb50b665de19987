package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// ServerMode selects which front end serves authorization checks.
type ServerMode string

const (
	// ServerModeRaw is the hand-rolled TCP listener.
	ServerModeRaw ServerMode = "raw"
	// ServerModeWeb is the framework-based HTTP server.
	ServerModeWeb ServerMode = "web"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8090
	DefaultConfigServerMode      = ServerModeRaw
	DefaultConfigReadTimeout     = 30 * time.Second
	DefaultConfigWriteTimeout    = 30 * time.Second
	DefaultConfigShutdownTimeout = 5 * time.Second
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host string     `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16     `json:"port"` // Port range 0-65535 handled by uint16 type
	Mode ServerMode `json:"mode" validate:"oneof=raw web"`

	// ReadTimeout bounds the header-scanning phase of a connection;
	// WriteTimeout bounds writing the response.
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// StoreConfig holds token store configuration.
type StoreConfig struct {
	// File is the path of the flat token file.
	File string `json:"file" validate:"required"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json"`
	Server    ServerConfig   `json:"server"`
	Shutdown  ShutdownConfig `json:"shutdown"`
	Store     StoreConfig    `json:"store"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultConfigServerMode
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultConfigReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultConfigWriteTimeout
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}

	if c.Store.File == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("store.file required (auto-detect failed: %w)", err)
		}
		c.Store.File = filepath.Join(configDir, "mellon", "tokens")
	}

	return nil
}

// Validate validates the configuration using struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
