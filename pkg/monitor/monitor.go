package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogulcanaydogan/binwatch/pkg/alerts"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// ErrNothingToReset is returned by ResetNotifications when the store is empty.
var ErrNothingToReset = errors.New("no notifications to reset")

// Monitor keeps notifications in step with fill-level telemetry. It runs two
// independent subscriptions: one derives notifications from readings, the
// other surfaces unread notifications as toasts.
type Monitor struct {
	storage    storage.Storage
	notifiers  []alerts.Notifier
	deriver    *Deriver
	dispatcher *Dispatcher
	opts       Options
	logger     *slog.Logger

	readingsWake      chan struct{}
	notificationsWake chan struct{}

	mu          sync.RWMutex
	loading     bool
	deriveErr   error
	dispatchErr error
	lastSync    time.Time
}

// New creates a monitor with the given dependencies.
func New(store storage.Storage, notifiers []alerts.Notifier, opts Options, logger *slog.Logger) *Monitor {
	opts = opts.WithDefaults()
	return &Monitor{
		storage:           store,
		notifiers:         notifiers,
		deriver:           NewDeriver(store, opts, logger),
		dispatcher:        NewDispatcher(store, notifiers, opts, logger),
		opts:              opts,
		logger:            logger,
		readingsWake:      make(chan struct{}, 1),
		notificationsWake: make(chan struct{}, 1),
		loading:           true,
	}
}

// Run drives both subscriptions until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		"poll_interval", m.opts.PollInterval,
		"toast_delay", m.opts.ToastDelay,
		"full_threshold", m.opts.FullThreshold,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.subscribe(gctx, m.readingsWake, m.derivePass)
		return nil
	})
	g.Go(func() error {
		m.subscribe(gctx, m.notificationsWake, m.dispatchPass)
		return nil
	})
	err := g.Wait()

	m.logger.Info("monitor stopped")
	return err
}

// Trigger wakes the readings subscription without waiting for the next poll.
func (m *Monitor) Trigger() {
	notify(m.readingsWake)
}

// SyncOnce runs a single derive pass followed by a single dispatch pass.
func (m *Monitor) SyncOnce(ctx context.Context) (created, shown int, err error) {
	created, err = m.deriver.Sync(ctx)
	m.setDeriveResult(err)
	if err != nil {
		return created, 0, fmt.Errorf("derive notifications: %w", err)
	}

	shown, err = m.dispatcher.Dispatch(ctx)
	m.setDispatchResult(err)
	if err != nil {
		return created, shown, fmt.Errorf("dispatch notifications: %w", err)
	}
	return created, shown, nil
}

// Status returns the current sync state.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{Loading: m.loading, LastSync: m.lastSync}
	switch {
	case m.deriveErr != nil:
		st.Error = m.deriveErr.Error()
	case m.dispatchErr != nil:
		st.Error = m.dispatchErr.Error()
	}
	return st
}

// ResetNotifications deletes every notification in one batch and reports the
// outcome as a toast. It returns ErrNothingToReset if there was nothing to delete.
func (m *Monitor) ResetNotifications(ctx context.Context) (int64, error) {
	deleted, err := m.storage.DeleteAllNotifications(ctx)
	if err != nil {
		broadcast(ctx, m.notifiers, alerts.Alert{
			Level:     alerts.AlertError,
			Title:     "Failed to reset the notifications",
			Message:   err.Error(),
			Timestamp: m.opts.Now(),
		}, m.logger)
		return 0, fmt.Errorf("reset notifications: %w", err)
	}

	if deleted == 0 {
		broadcast(ctx, m.notifiers, alerts.Alert{
			Level:     alerts.AlertWarning,
			Title:     "No data found to reset",
			Timestamp: m.opts.Now(),
		}, m.logger)
		return 0, ErrNothingToReset
	}

	m.logger.Info("notifications reset", "deleted", deleted)
	broadcast(ctx, m.notifiers, alerts.Alert{
		Level:     alerts.AlertSuccess,
		Title:     "Successfully reset the notifications",
		Message:   fmt.Sprintf("%d notifications deleted", deleted),
		Timestamp: m.opts.Now(),
	}, m.logger)
	return deleted, nil
}

// subscribe runs pass immediately, then again on every poll tick or wake-up.
func (m *Monitor) subscribe(ctx context.Context, wake <-chan struct{}, pass func(context.Context)) {
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		pass(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake:
		}
	}
}

func (m *Monitor) derivePass(ctx context.Context) {
	created, err := m.deriver.Sync(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.logger.Error("fill level sync failed", "error", err)
	}
	m.setDeriveResult(err)

	if created > 0 {
		notify(m.notificationsWake)
	}
}

func (m *Monitor) dispatchPass(ctx context.Context) {
	shown, err := m.dispatcher.Dispatch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.logger.Error("notification dispatch failed", "error", err)
	}
	m.setDispatchResult(err)

	if shown > 0 {
		m.logger.Debug("notifications shown", "count", shown)
	}
}

func (m *Monitor) setDeriveResult(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	m.deriveErr = err
	if err == nil {
		m.lastSync = m.opts.Now()
	}
}

func (m *Monitor) setDispatchResult(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchErr = err
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
