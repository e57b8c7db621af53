package alerts

import (
	"context"
	"log/slog"
)

// LogNotifier writes alerts to a structured logger. It is the default toast
// channel when no external integration is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	level := slog.LevelInfo
	switch alert.Level {
	case AlertWarning:
		level = slog.LevelWarn
	case AlertError:
		level = slog.LevelError
	}

	n.logger.Log(ctx, level, alert.Title,
		"toast", string(alert.Level),
		"bin", alert.BinID,
		"fill_id", alert.FillID,
		"message", alert.Message,
	)
	return nil
}
