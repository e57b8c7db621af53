package storage

import (
	"context"
	"errors"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a record collides with a unique key.
var ErrAlreadyExists = errors.New("already exists")

// Storage defines the persistence layer for bins, fill readings and notifications.
type Storage interface {
	// CreateBin registers a new bin.
	CreateBin(ctx context.Context, bin *model.Bin) error

	// GetBin retrieves a bin by ID.
	GetBin(ctx context.Context, id string) (*model.Bin, error)

	// ListBins returns all registered bins ordered by name.
	ListBins(ctx context.Context) ([]model.Bin, error)

	// DeleteBin removes a bin by ID.
	DeleteBin(ctx context.Context, id string) error

	// RecordReading persists a single fill-level reading. A reading whose ID
	// is already stored is left unchanged.
	RecordReading(ctx context.Context, reading *model.FillReading) error

	// RecordReadings persists a batch in one transaction, skipping IDs that
	// are already stored. It fills in missing IDs and timestamps in place and
	// returns the number of new rows.
	RecordReadings(ctx context.Context, readings []model.FillReading) (int, error)

	// QueryReadings retrieves readings matching the given filter, newest first.
	QueryReadings(ctx context.Context, filter model.ReadingFilter) ([]model.FillReading, error)

	// FindNotificationByFillID returns the notification derived from a reading.
	FindNotificationByFillID(ctx context.Context, fillID string) (*model.Notification, error)

	// CreateNotification inserts a notification unless one already exists for
	// its FillID. It reports whether a row was written.
	CreateNotification(ctx context.Context, n *model.Notification) (bool, error)

	// QueryNotifications retrieves notifications matching the filter, oldest first.
	QueryNotifications(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, error)

	// MarkNotificationRead flips an unread notification to read. It reports
	// false if the notification was already read.
	MarkNotificationRead(ctx context.Context, id string) (bool, error)

	// MarkNotificationUnread returns a notification to the unread set.
	MarkNotificationUnread(ctx context.Context, id string) error

	// DeleteAllNotifications removes every notification in a single batch.
	DeleteAllNotifications(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}
