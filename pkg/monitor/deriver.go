package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/binwatch/pkg/model"
	"github.com/ogulcanaydogan/binwatch/pkg/storage"
)

// Deriver turns today's full-bin readings into notification records.
type Deriver struct {
	storage storage.Storage
	opts    Options
	logger  *slog.Logger
}

// NewDeriver creates a deriver.
func NewDeriver(store storage.Storage, opts Options, logger *slog.Logger) *Deriver {
	return &Deriver{
		storage: store,
		opts:    opts.WithDefaults(),
		logger:  logger,
	}
}

// Sync ensures exactly one notification exists for every full reading logged
// today. It returns the number of notifications it created. A failure on one
// reading does not stop the pass; all such failures are joined into the error.
func (d *Deriver) Sync(ctx context.Context) (int, error) {
	now := d.opts.Now()
	start, end := model.DayBounds(now, d.opts.Location)

	readings, err := d.storage.QueryReadings(ctx, model.ReadingFilter{StartTime: start, EndTime: end})
	if err != nil {
		return 0, fmt.Errorf("query today's readings: %w", err)
	}

	var errs []error
	created := 0
	for _, r := range readings {
		if !d.isFull(r, now) {
			continue
		}

		n := &model.Notification{
			Title:     model.FullBinTitle(r.BinID, r.BinType),
			Timestamp: now,
			IsRead:    false,
			BinID:     r.BinID,
			FillID:    r.ID,
		}

		ok, err := d.storage.CreateNotification(ctx, n)
		if err != nil {
			d.logger.Error("create notification", "bin", r.BinID, "fill_id", r.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}

		created++
		d.logger.Info("bin full",
			"bin", r.BinID,
			"bin_type", r.BinType,
			"fill_id", r.ID,
			"percentage", r.Percentage,
		)
	}

	return created, errors.Join(errs...)
}

func (d *Deriver) isFull(r model.FillReading, now time.Time) bool {
	return r.Percentage >= d.opts.FullThreshold && model.IsSameDay(r.Timestamp, now, d.opts.Location)
}
