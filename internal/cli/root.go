package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ogulcanaydogan/binwatch/internal/config"
	"github.com/ogulcanaydogan/binwatch/pkg/alerts"
	"github.com/ogulcanaydogan/binwatch/pkg/monitor"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "binwatch",
	Short: "binwatch - Waste bin fill-level monitoring",
	Long: `binwatch stores fill-level telemetry from waste bins, keeps a registry of bins,
and raises a notification once for every reading that reports a full bin.
Notifications are delivered as toasts to the log, Slack, or a webhook.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.binwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates toast channels from config. External channels are
// wrapped with retries.
func initNotifiers(cfg *config.Config, logger *slog.Logger) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Log.Enabled {
		notifiers = append(notifiers, alerts.NewLogNotifier(logger))
	}

	retryDelay := config.ParseDuration(cfg.Alerts.Retry.Delay, 2*time.Second)
	withRetry := func(n alerts.Notifier) alerts.Notifier {
		return alerts.NewRetryNotifier(n, cfg.Alerts.Retry.Attempts, retryDelay, logger)
	}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, withRetry(alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		)))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, withRetry(alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		)))
	}

	return notifiers
}

// monitorOptions converts config into monitor options with defaults applied.
func monitorOptions(cfg *config.Config) (monitor.Options, error) {
	loc, err := cfg.Monitor.Location()
	if err != nil {
		return monitor.Options{}, err
	}
	return monitor.Options{
		PollInterval:  config.ParseDuration(cfg.Monitor.PollInterval, monitor.DefaultPollInterval),
		ToastDelay:    config.ParseDuration(cfg.Monitor.ToastDelay, monitor.DefaultToastDelay),
		FullThreshold: cfg.Monitor.FullThreshold,
		Location:      loc,
	}.WithDefaults(), nil
}

// initMonitor creates a fully wired monitor.
func initMonitor(cfg *config.Config) (*monitor.Monitor, storage.Storage, error) {
	logger := newLogger(cfg)

	opts, err := monitorOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	notifiers := initNotifiers(cfg, logger)
	return monitor.New(store, notifiers, opts, logger), store, nil
}
