package config

import (
	"fmt"
	"time"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// ServerConfig is the root configuration.
type ServerConfig struct {
	Server ServerSettings `yaml:"server"`
}

// ServerSettings contains server-wide settings.
type ServerSettings struct {
	// Server settings
	Port            string        `yaml:"port" envconfig:"PORT" required:"true"`
	Host            string        `yaml:"host" envconfig:"HOST" required:"true"`
	ReadTimeout     time.Duration `yaml:"readTimeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT" default:"0s"` // 0 so push streams stay open
	IdleTimeout     time.Duration `yaml:"idleTimeout" envconfig:"IDLE_TIMEOUT" default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"` // middleware timeout for control-surface requests

	// PublicBaseURL is used to build join links (QR codes). When empty the
	// link is derived from the incoming request.
	PublicBaseURL string `yaml:"publicBaseUrl" envconfig:"PUBLIC_BASE_URL"`

	// Room lifecycle
	SweepInterval    time.Duration `yaml:"sweepInterval"`
	SubscriberBuffer int           `yaml:"subscriberBuffer"`
	CommandQueueSize int           `yaml:"commandQueueSize"`

	// Optional append-only room log; empty path disables persistence.
	RoomLogPath string `yaml:"roomLogPath" envconfig:"ROOM_LOG_PATH"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit" envconfig:"RATE_LIMIT" default:"10"`
	RateLimitBurst int     `yaml:"rateLimitBurst" envconfig:"RATE_LIMIT_BURST" default:"20"`

	// Request limits
	MaxRequestSize int64 `yaml:"maxRequestSize" envconfig:"MAX_REQUEST_SIZE" default:"1048576"` // 1MB

	// Logging
	LogLevel  string `yaml:"logLevel" envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `yaml:"logFormat" envconfig:"LOG_FORMAT" default:"text"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Port:            "", // Must be set via env
			Host:            "", // Must be set via env
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,

			SweepInterval:    time.Minute,
			SubscriberBuffer: 32,
			CommandQueueSize: 64,

			RateLimit:      10,
			RateLimitBurst: 20,

			MaxRequestSize: 1048576,

			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT environment variable must be set")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("HOST environment variable must be set")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rateLimit must be positive")
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rateLimitBurst must be at least 1")
	}
	if c.Server.MaxRequestSize < 1024 {
		return fmt.Errorf("maxRequestSize must be at least 1KB")
	}
	if c.Server.SweepInterval <= 0 {
		c.Server.SweepInterval = time.Minute
	}
	if c.Server.SubscriberBuffer < 8 {
		c.Server.SubscriberBuffer = 8
	}
	if c.Server.CommandQueueSize < 16 {
		c.Server.CommandQueueSize = 16
	}
	return nil
}
