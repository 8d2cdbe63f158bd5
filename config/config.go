// Package config loads asset cache settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/krisalay/asset-cache/expiration"
	"github.com/krisalay/asset-cache/memory"
	"github.com/krisalay/asset-cache/writepolicy"
)

// Config holds every tunable of the cache, its loaders and the population
// pipeline. Zero values are replaced by the envDefault tags when parsed.
type Config struct {
	DBPath          string        `env:"DB_PATH" envDefault:"asset-cache.db"`
	MemoryCapacity  int           `env:"MEMORY_CAPACITY" envDefault:"20"`
	TTL             time.Duration `env:"TTL" envDefault:"720h"`
	WriteMode       string        `env:"WRITE_MODE" envDefault:"through"`
	WriteBackBuffer int           `env:"WRITE_BACK_BUFFER" envDefault:"256"`

	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxAssetBytes int64         `env:"MAX_ASSET_BYTES" envDefault:"0"`

	PipelineConcurrency int  `env:"PIPELINE_CONCURRENCY" envDefault:"0"`
	Coalesce            bool `env:"COALESCE" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"true"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Prefix is prepended to every variable name in Config.
const Prefix = "ASSET_CACHE_"

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() Config {
	return Config{
		DBPath:          "asset-cache.db",
		MemoryCapacity:  memory.DefaultCapacity,
		TTL:             expiration.DefaultTTL,
		WriteMode:       string(writepolicy.ModeWriteThrough),
		WriteBackBuffer: writepolicy.DefaultWriteBackBuffer,
		FetchTimeout:    30 * time.Second,
		Coalesce:        true,
		LogLevel:        "info",
		S3UseSSL:        true,
	}
}

// Validate rejects values the cache cannot run with.
func (c Config) Validate() error {
	if c.MemoryCapacity <= 0 {
		return fmt.Errorf("memory capacity must be positive, got %d", c.MemoryCapacity)
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must not be negative, got %s", c.TTL)
	}
	switch writepolicy.Mode(c.WriteMode) {
	case writepolicy.ModeWriteThrough, writepolicy.ModeWriteBack:
	default:
		return fmt.Errorf("write mode must be %q or %q, got %q",
			writepolicy.ModeWriteThrough, writepolicy.ModeWriteBack, c.WriteMode)
	}
	if c.WriteBackBuffer <= 0 {
		return fmt.Errorf("write-back buffer must be positive, got %d", c.WriteBackBuffer)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.MaxAssetBytes < 0 {
		return fmt.Errorf("max asset bytes must not be negative, got %d", c.MaxAssetBytes)
	}
	if c.PipelineConcurrency < 0 {
		return fmt.Errorf("pipeline concurrency must not be negative, got %d", c.PipelineConcurrency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.S3Endpoint != "" && (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return fmt.Errorf("s3 access key and secret key must be set together")
	}
	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
