package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/binwatch/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "30s", cfg.Server.ReadTimeout)
	assert.Equal(t, "60s", cfg.Server.WriteTimeout)
	assert.Equal(t, "5s", cfg.Monitor.PollInterval)
	assert.Equal(t, "30s", cfg.Monitor.ToastDelay)
	assert.Equal(t, 100.0, cfg.Monitor.FullThreshold)
	assert.True(t, cfg.Alerts.Log.Enabled)
	assert.False(t, cfg.Alerts.Slack.Enabled)
	assert.Equal(t, uint(3), cfg.Alerts.Retry.Attempts)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/bins.db
server:
  listen: ":9090"
monitor:
  toast_delay: 10s
  full_threshold: 95
  timezone: Asia/Manila
alerts:
  webhook:
    enabled: true
    url: https://example.com/hook
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/bins.db", cfg.Storage.Path)
	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "10s", cfg.Monitor.ToastDelay)
	assert.Equal(t, 95.0, cfg.Monitor.FullThreshold)
	assert.Equal(t, "Asia/Manila", cfg.Monitor.Timezone)
	assert.True(t, cfg.Alerts.Webhook.Enabled)
	assert.Equal(t, "https://example.com/hook", cfg.Alerts.Webhook.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BINWATCH_LOGGING_LEVEL", "error")
	t.Setenv("BINWATCH_SERVER_LISTEN", ":7070")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.Listen)
}

func TestLoad_InvalidFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func TestMonitorConfig_Location(t *testing.T) {
	loc, err := config.MonitorConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = config.MonitorConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	_, err = config.MonitorConfig{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 10*time.Second, config.ParseDuration("10s", time.Minute))
	assert.Equal(t, time.Minute, config.ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, config.ParseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, config.ParseDuration("-1s", time.Minute))
}
