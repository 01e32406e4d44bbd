// Package config provides configuration management for the VI mosaic service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/robert-malhotra/vi-mosaic/internal/composite"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Engine   EngineConfig   `envPrefix:"ENGINE_"`
	Source   SourceConfig   `envPrefix:"SOURCE_"`
	Schedule ScheduleConfig `envPrefix:"SCHEDULE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"5m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// EngineConfig contains mosaic engine configuration.
type EngineConfig struct {
	// Concurrency bounds the per-cell fetch/composite worker pool.
	// It protects the tile source, which is typically rate-limited
	// disk or network I/O.
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`

	// Rule names the compositing selection rule.
	Rule string `env:"RULE" envDefault:"max-value"`

	// ProductsDir optionally points at a directory of product
	// capability JSON files that extend or override the built-ins.
	ProductsDir string `env:"PRODUCTS_DIR" envDefault:""`
}

// SourceConfig contains tile source configuration.
type SourceConfig struct {
	// Type selects the tile source implementation: "dir" or "memory".
	Type string `env:"TYPE" envDefault:"dir"`

	// Dir is the staged-tile directory root used by the "dir" source.
	Dir string `env:"DIR" envDefault:"./tiles"`
}

// ScheduleConfig contains the periodic rebuild job configuration.
type ScheduleConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"false"`
	Product  string        `env:"PRODUCT" envDefault:"MOD09CMG"`
	Interval time.Duration `env:"INTERVAL" envDefault:"24h"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine concurrency must be at least 1, got %d", c.Engine.Concurrency)
	}

	if composite.ByName(c.Engine.Rule) == nil {
		return fmt.Errorf("unknown compositing rule %q", c.Engine.Rule)
	}

	if c.Source.Type != "dir" && c.Source.Type != "memory" {
		return fmt.Errorf("source type must be 'dir' or 'memory', got %q", c.Source.Type)
	}

	if c.Source.Type == "dir" && c.Source.Dir == "" {
		return fmt.Errorf("source directory is required for the dir source")
	}

	if c.Schedule.Enabled {
		if c.Schedule.Product == "" {
			return fmt.Errorf("schedule product is required when the schedule is enabled")
		}
		if c.Schedule.Interval <= 0 {
			return fmt.Errorf("schedule interval must be positive, got %s", c.Schedule.Interval)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
