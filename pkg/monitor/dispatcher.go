package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/binwatch/pkg/alerts"
	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// Dispatcher surfaces today's unread notifications as toasts.
type Dispatcher struct {
	storage   storage.Storage
	notifiers []alerts.Notifier
	opts      Options
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store storage.Storage, notifiers []alerts.Notifier, opts Options, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		storage:   store,
		notifiers: notifiers,
		opts:      opts.WithDefaults(),
		logger:    logger,
	}
}

// Dispatch marks each unread notification from today as read and shows it,
// oldest first, waiting ToastDelay between consecutive toasts. A notification
// already claimed by another dispatcher is skipped without a wait. Dispatch
// returns early with ctx.Err() if the context ends during a wait; unshown
// notifications stay unread.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	now := d.opts.Now()
	start, end := model.DayBounds(now, d.opts.Location)

	pending, err := d.storage.QueryNotifications(ctx, model.NotificationFilter{
		UnreadOnly: true,
		StartTime:  start,
		EndTime:    end,
	})
	if err != nil {
		return 0, fmt.Errorf("query unread notifications: %w", err)
	}

	var errs []error
	shown := 0
	for _, n := range pending {
		claimed, err := d.storage.MarkNotificationRead(ctx, n.ID)
		if err != nil {
			d.logger.Error("mark notification read", "notification", n.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if !claimed {
			continue
		}

		if shown > 0 {
			if err := wait(ctx, d.opts.ToastDelay); err != nil {
				return shown, errors.Join(append(errs, err, d.release(ctx, n.ID))...)
			}
		}

		broadcast(ctx, d.notifiers, alerts.Alert{
			Level:     alerts.AlertError,
			Title:     n.Title,
			BinID:     n.BinID,
			FillID:    n.FillID,
			Timestamp: n.Timestamp,
		}, d.logger)
		shown++
	}

	return shown, errors.Join(errs...)
}

// release returns a claimed but unshown notification to the unread set.
func (d *Dispatcher) release(ctx context.Context, id string) error {
	if err := d.storage.MarkNotificationUnread(context.WithoutCancel(ctx), id); err != nil {
		d.logger.Error("release notification", "notification", id, "error", err)
		return err
	}
	return nil
}

// broadcast sends alert to every notifier. Delivery failures are logged only.
func broadcast(ctx context.Context, notifiers []alerts.Notifier, alert alerts.Alert, logger *slog.Logger) {
	for _, notifier := range notifiers {
		if err := notifier.Send(ctx, alert); err != nil {
			logger.Error("send alert failed",
				"notifier", notifier.Name(),
				"title", alert.Title,
				"error", err,
			)
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
