package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  dbname: crosspost\n"))
	require.NoError(t, err)

	assert.Equal(t, "crosspost", cfg.Database.DBName)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Publish.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Publish.Retry.BaseInterval)
	assert.Equal(t, 5*time.Minute, cfg.Publish.Retry.MaxInterval)
	assert.Equal(t, 30*time.Second, cfg.Publish.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Publish.InFlightTTL)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
	assert.Equal(t, 500, cfg.Platforms.Mastodon.CharLimit)
	assert.Equal(t, cfg.Publish.Timeout, cfg.Platforms.DevTo.Timeout)
	assert.True(t, cfg.Platforms.DevTo.IsEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("CROSSPOST_TEST_SECRET", "s3cret")

	cfg, err := Parse([]byte(`
platforms:
  mastodon:
    enabled: false
    oauth:
      client_id: app
      client_secret: ${CROSSPOST_TEST_SECRET}
      token_url: https://social.example/oauth/token
`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Platforms.Mastodon.OAuth.ClientSecret)
	assert.True(t, cfg.Platforms.Mastodon.OAuth.Configured())
	assert.False(t, cfg.Platforms.Mastodon.IsEnabled())
	assert.False(t, cfg.Platforms.DevTo.OAuth.Configured())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("publish:\n  retry:\n    base_interval: 10m\n    max_interval: 1m\n"))
	assert.ErrorContains(t, err, "max_interval")

	_, err = Parse([]byte("publish:\n  timeout: 5m\n  in_flight_ttl: 1m\n"))
	assert.ErrorContains(t, err, "in_flight_ttl")

	_, err = Parse([]byte("log_level: loud\n"))
	assert.ErrorContains(t, err, "log_level")

	_, err = Parse([]byte("database: [\n"))
	assert.ErrorContains(t, err, "parse config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nscheduler:\n  workers: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Scheduler.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
