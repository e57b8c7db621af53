package monitor

import (
	"time"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

// Re-export types from model package for convenience.
type (
	Bin                = model.Bin
	FillReading        = model.FillReading
	Notification       = model.Notification
	ReadingFilter      = model.ReadingFilter
	NotificationFilter = model.NotificationFilter
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultToastDelay   = 30 * time.Second
)

// Options tunes the notification sync.
type Options struct {
	// PollInterval is how often each subscription re-reads its collection.
	PollInterval time.Duration

	// ToastDelay is the pause between two consecutive toasts.
	ToastDelay time.Duration

	// FullThreshold is the fill percentage at or above which a bin is full.
	FullThreshold float64

	// Location defines the calendar day used for "today".
	Location *time.Location

	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// WithDefaults fills unset or invalid fields with their defaults.
func (o Options) WithDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ToastDelay < 0 {
		o.ToastDelay = 0
	}
	if o.FullThreshold <= 0 {
		o.FullThreshold = model.DefaultFullThreshold
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Status reports the sync state in the shape a dashboard polls for.
type Status struct {
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
	LastSync time.Time `json:"last_sync,omitempty"`
}
