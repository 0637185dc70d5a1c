// Package config provides configuration loading for aurad.
//
// Configuration is layered: hardcoded defaults, then an optional YAML
// file, then AURAD_-prefixed environment variables. Every field is
// addressable from all three layers.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete aurad configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Aura      AuraConfig      `koanf:"aura"`
	Accel     AccelConfig     `koanf:"accel"`
	Events    EventsConfig    `koanf:"events"`
	Discovery DiscoveryConfig `koanf:"discovery"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained request rate allowed per client IP,
	// in requests per second. RateBurst is the instantaneous burst.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// IncludeText opts into logging raw message text. By default
	// message content is redacted from info-and-above logs.
	IncludeText bool `koanf:"include_text"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// AuraConfig holds compression service configuration.
type AuraConfig struct {
	// StorePath is the JSON file for discovered templates. Empty
	// disables persistence.
	StorePath string `koanf:"store_path"`

	// Watch reloads the template store when the file changes on disk.
	Watch bool `koanf:"watch"`

	// MaxTextLength caps the size of a single compressible message.
	MaxTextLength int `koanf:"max_text_length"`
}

// AccelConfig holds conversation accelerator configuration.
type AccelConfig struct {
	CacheCapacity    int  `koanf:"cache_capacity"`
	Preload          bool `koanf:"preload"`
	PlatformPatterns int  `koanf:"platform_patterns"`
}

// EventsConfig holds NATS eventing configuration.
type EventsConfig struct {
	// URL is the NATS server address. Empty disables eventing.
	URL string `koanf:"url"`

	// AuthToken authenticates against the broker when set.
	AuthToken Secret `koanf:"auth_token"`
}

// DiscoveryConfig holds template discovery configuration.
type DiscoveryConfig struct {
	Enabled    bool     `koanf:"enabled"`
	Interval   Duration `koanf:"interval"`
	MinSupport int      `koanf:"min_support"`
	Similarity float64  `koanf:"similarity"`
	MaxSlots   int      `koanf:"max_slots"`
	MinLiteral int      `koanf:"min_literal"`
	MaxCorpus  int      `koanf:"max_corpus"`
	Range      string   `koanf:"range"`
	PolicyPath string   `koanf:"policy_path"`
}

// Default returns the configuration aurad runs with when no file and
// no environment overrides are present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8741
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 50
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 100
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Telemetry defaults
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "aurad"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1.0
	}

	// Aura defaults
	if cfg.Aura.MaxTextLength == 0 {
		cfg.Aura.MaxTextLength = 1 << 20
	}

	// Accel defaults
	if cfg.Accel.CacheCapacity == 0 {
		cfg.Accel.CacheCapacity = 1000
	}
	if cfg.Accel.PlatformPatterns == 0 {
		cfg.Accel.PlatformPatterns = 10000
	}

	// Discovery defaults
	if cfg.Discovery.Interval == 0 {
		cfg.Discovery.Interval = Duration(time.Hour)
	}
	if cfg.Discovery.MinSupport == 0 {
		cfg.Discovery.MinSupport = 5
	}
	if cfg.Discovery.Similarity == 0 {
		cfg.Discovery.Similarity = 0.82
	}
	if cfg.Discovery.MaxSlots == 0 {
		cfg.Discovery.MaxSlots = 3
	}
	if cfg.Discovery.MinLiteral == 0 {
		cfg.Discovery.MinLiteral = 12
	}
	if cfg.Discovery.MaxCorpus == 0 {
		cfg.Discovery.MaxCorpus = 10000
	}
}

// Validate validates the configuration. Errors name the offending
// field in its config-file form.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout: must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server.rate_limit: %v (must be >= 0)", c.Server.RateLimit)
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("invalid server.rate_burst: %d (must be >= 0)", c.Server.RateBurst)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q (must be trace, debug, info, warn, or error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %q (must be json or console)", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.ServiceName == "" {
			return fmt.Errorf("telemetry.service_name required when telemetry is enabled")
		}
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint required when telemetry is enabled")
		}
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http":
	default:
		return fmt.Errorf("invalid telemetry.protocol: %q (must be grpc or http)", c.Telemetry.Protocol)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("invalid telemetry.sample_rate: %v (must be 0-1)", c.Telemetry.SampleRate)
	}

	if c.Aura.MaxTextLength < 1 {
		return fmt.Errorf("invalid aura.max_text_length: %d (must be positive)", c.Aura.MaxTextLength)
	}
	if c.Aura.Watch && c.Aura.StorePath == "" {
		return fmt.Errorf("aura.watch requires aura.store_path")
	}

	if c.Accel.CacheCapacity < 1 {
		return fmt.Errorf("invalid accel.cache_capacity: %d (must be positive)", c.Accel.CacheCapacity)
	}
	if c.Accel.PlatformPatterns < 1 {
		return fmt.Errorf("invalid accel.platform_patterns: %d (must be positive)", c.Accel.PlatformPatterns)
	}

	if c.Discovery.Enabled {
		if c.Discovery.Interval <= 0 {
			return fmt.Errorf("invalid discovery.interval: must be positive")
		}
		if c.Discovery.Similarity <= 0 || c.Discovery.Similarity > 1 {
			return fmt.Errorf("invalid discovery.similarity: %v (must be in (0, 1])", c.Discovery.Similarity)
		}
		if c.Discovery.MinSupport < 1 {
			return fmt.Errorf("invalid discovery.min_support: %d (must be positive)", c.Discovery.MinSupport)
		}
	}

	return nil
}
