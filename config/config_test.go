package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 20, cfg.MemoryCapacity)
	assert.Equal(t, 30*24*time.Hour, cfg.TTL)
	assert.True(t, cfg.Coalesce)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ASSET_CACHE_DB_PATH", "/tmp/assets.db")
	t.Setenv("ASSET_CACHE_MEMORY_CAPACITY", "50")
	t.Setenv("ASSET_CACHE_TTL", "1h")
	t.Setenv("ASSET_CACHE_WRITE_MODE", "back")
	t.Setenv("ASSET_CACHE_PIPELINE_CONCURRENCY", "4")
	t.Setenv("ASSET_CACHE_COALESCE", "false")
	t.Setenv("ASSET_CACHE_S3_ENDPOINT", "localhost:9000")
	t.Setenv("ASSET_CACHE_S3_ACCESS_KEY", "minio")
	t.Setenv("ASSET_CACHE_S3_SECRET_KEY", "minio123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/assets.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.MemoryCapacity)
	assert.Equal(t, time.Hour, cfg.TTL)
	assert.Equal(t, "back", cfg.WriteMode)
	assert.Equal(t, 4, cfg.PipelineConcurrency)
	assert.False(t, cfg.Coalesce)
	assert.Equal(t, "localhost:9000", cfg.S3Endpoint)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("ASSET_CACHE_MEMORY_CAPACITY", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero capacity", func(c *Config) { c.MemoryCapacity = 0 }, "memory capacity"},
		{"negative ttl", func(c *Config) { c.TTL = -time.Second }, "ttl"},
		{"zero ttl disables expiry", func(c *Config) { c.TTL = 0 }, ""},
		{"unknown write mode", func(c *Config) { c.WriteMode = "around" }, "write mode"},
		{"zero write-back buffer", func(c *Config) { c.WriteBackBuffer = 0 }, "write-back buffer"},
		{"negative fetch timeout", func(c *Config) { c.FetchTimeout = -1 }, "fetch timeout"},
		{"negative max bytes", func(c *Config) { c.MaxAssetBytes = -1 }, "max asset bytes"},
		{"negative concurrency", func(c *Config) { c.PipelineConcurrency = -2 }, "pipeline concurrency"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"half s3 credentials", func(c *Config) {
			c.S3Endpoint = "localhost:9000"
			c.S3AccessKey = "minio"
		}, "s3 access key"},
		{"anonymous s3", func(c *Config) { c.S3Endpoint = "localhost:9000" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
