package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all binwatch configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	MaxBodySize  int64  `mapstructure:"max_body_size"`
}

// MonitorConfig defines the notification sync.
type MonitorConfig struct {
	PollInterval  string  `mapstructure:"poll_interval"`
	ToastDelay    string  `mapstructure:"toast_delay"`
	FullThreshold float64 `mapstructure:"full_threshold"`
	Timezone      string  `mapstructure:"timezone"`
}

// AlertsConfig defines toast delivery channels.
type AlertsConfig struct {
	Log     LogAlertConfig `mapstructure:"log"`
	Slack   SlackConfig    `mapstructure:"slack"`
	Webhook WebhookConfig  `mapstructure:"webhook"`
	Retry   RetryConfig    `mapstructure:"retry"`
}

// LogAlertConfig toggles writing toasts to the process log.
type LogAlertConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// RetryConfig defines delivery retries for external channels.
type RetryConfig struct {
	Attempts uint   `mapstructure:"attempts"`
	Delay    string `mapstructure:"delay"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".binwatch"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".binwatch", "binwatch.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.max_body_size", 1024*1024) // 1 MB
	v.SetDefault("monitor.poll_interval", "5s")
	v.SetDefault("monitor.toast_delay", "30s")
	v.SetDefault("monitor.full_threshold", 100.0)
	v.SetDefault("monitor.timezone", "Local")
	v.SetDefault("alerts.log.enabled", true)
	v.SetDefault("alerts.slack.channel", "#bins")
	v.SetDefault("alerts.retry.attempts", 3)
	v.SetDefault("alerts.retry.delay", "2s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("BINWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Location resolves monitor.timezone. An empty value means the local zone.
func (c MonitorConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("monitor timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ParseDuration parses s, returning fallback when s is empty or invalid.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
