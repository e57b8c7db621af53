package alerts

import (
	"context"
	"time"
)

// AlertLevel mirrors the toast variants a dashboard can render.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error" // Bin full
)

// Alert is a single toast to surface to operators.
type Alert struct {
	Level     AlertLevel `json:"level"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	BinID     string     `json:"bin_id,omitempty"`
	FillID    string     `json:"fill_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
