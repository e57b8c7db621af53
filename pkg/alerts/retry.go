package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryNotifier retries failed deliveries of the wrapped notifier with a fixed delay.
type RetryNotifier struct {
	next     Notifier
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// NewRetryNotifier wraps next. An attempts value below 1 is treated as 1.
func NewRetryNotifier(next Notifier, attempts uint, delay time.Duration, logger *slog.Logger) *RetryNotifier {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryNotifier{next: next, attempts: attempts, delay: delay, logger: logger}
}

func (r *RetryNotifier) Name() string { return r.next.Name() }

func (r *RetryNotifier) Send(ctx context.Context, alert Alert) error {
	return retry.Do(
		func() error {
			return r.next.Send(ctx, alert)
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			r.logger.Warn("alert delivery failed, retrying",
				"notifier", r.next.Name(),
				"attempt", attempt+1,
				"max_attempts", r.attempts,
				"error", err,
			)
		}),
	)
}
