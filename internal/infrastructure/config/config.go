package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Embed     EmbedConfig
}

// ServerConfig holds HTTP server configuration. The control API is meant for
// the host UI on the same machine, hence the loopback default. AllowOrigins
// lists the browser origins admitted by CORS and the event stream; "*"
// admits any page and an empty value admits none.
type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8765"`
	Host         string   `envconfig:"HOST" default:"127.0.0.1"`
	AllowOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EmbedConfig holds the foreign editor and embedding budgets.
type EmbedConfig struct {
	// Executable may be a doublestar pattern.
	Executable    string   `envconfig:"EMBED_EXECUTABLE" default:"code"`
	Args          []string `envconfig:"EMBED_ARGS"`
	Env           []string `envconfig:"EMBED_ENV"`
	TitleFragment string   `envconfig:"EMBED_TITLE_FRAGMENT" default:"Visual Studio Code"`
	WorkspaceRoot string   `envconfig:"EMBED_WORKSPACE_ROOT"`
	// Profile is a YAML or TOML file overriding the editor fields above.
	Profile string `envconfig:"EMBED_PROFILE"`
	// HostHandle is the host window, e.g. "0x1a2b". It can also be set
	// per request.
	HostHandle string `envconfig:"EMBED_HOST_HANDLE"`

	PrimaryAttempts  int           `envconfig:"EMBED_PRIMARY_ATTEMPTS" default:"10"`
	PrimaryDelay     time.Duration `envconfig:"EMBED_PRIMARY_DELAY" default:"500ms"`
	FallbackAttempts int           `envconfig:"EMBED_FALLBACK_ATTEMPTS" default:"5"`
	FallbackDelay    time.Duration `envconfig:"EMBED_FALLBACK_DELAY" default:"500ms"`
	SettleDelay      time.Duration `envconfig:"EMBED_SETTLE_DELAY" default:"1500ms"`
	EnforcePeriod    time.Duration `envconfig:"EMBED_ENFORCE_PERIOD" default:"1s"`
	WaitPollInterval time.Duration `envconfig:"EMBED_WAIT_POLL" default:"100ms"`
	WaitTimeout      time.Duration `envconfig:"EMBED_WAIT_TIMEOUT" default:"15s"`
	ResizeDebounce   time.Duration `envconfig:"EMBED_RESIZE_DEBOUNCE" default:"30ms"`

	GuardFailures uint32        `envconfig:"EMBED_GUARD_FAILURES" default:"3"`
	GuardTimeout  time.Duration `envconfig:"EMBED_GUARD_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables, then applies the
// editor profile if one is configured.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Embed.Profile != "" {
		p, err := LoadProfile(cfg.Embed.Profile)
		if err != nil {
			return nil, err
		}
		p.Apply(&cfg.Embed)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects budgets the coordinator cannot work with.
func (c *Config) Validate() error {
	e := c.Embed
	switch {
	case e.Executable == "":
		return fmt.Errorf("invalid config: EMBED_EXECUTABLE is empty")
	case e.PrimaryAttempts < 1:
		return fmt.Errorf("invalid config: EMBED_PRIMARY_ATTEMPTS must be at least 1, got %d", e.PrimaryAttempts)
	case e.FallbackAttempts < 0:
		return fmt.Errorf("invalid config: EMBED_FALLBACK_ATTEMPTS must not be negative, got %d", e.FallbackAttempts)
	case e.WaitTimeout <= 0:
		return fmt.Errorf("invalid config: EMBED_WAIT_TIMEOUT must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8765",
			Host:         "127.0.0.1",
			AllowOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Embed: EmbedConfig{
			Executable:       "code",
			TitleFragment:    "Visual Studio Code",
			PrimaryAttempts:  10,
			PrimaryDelay:     500 * time.Millisecond,
			FallbackAttempts: 5,
			FallbackDelay:    500 * time.Millisecond,
			SettleDelay:      1500 * time.Millisecond,
			EnforcePeriod:    time.Second,
			WaitPollInterval: 100 * time.Millisecond,
			WaitTimeout:      15 * time.Second,
			ResizeDebounce:   30 * time.Millisecond,
			GuardFailures:    3,
			GuardTimeout:     30 * time.Second,
		},
	}
}
