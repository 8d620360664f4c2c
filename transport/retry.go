package transport

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/petal-labs/anthropic/core"
)

// retry runs op until it succeeds, fails terminally, or the backoff budget is
// spent. op always runs at least once. Only core.ErrAPI failures are retried;
// when the budget is spent the last of them is returned unchanged.
func (t *Transport) retry(ctx context.Context, c *call, op func() error) error {
	b := backoff.WithContext(t.cfg.Backoff.NewBackOff(), ctx)

	operation := func() error {
		err := op()
		if err == nil || core.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		t.cfg.Metrics.observeRetry(c)
		c.logger.Warn("retrying after recoverable error",
			zap.Int("attempt", c.attempts),
			zap.Duration("backoff", next),
			zap.Error(err))
	}

	var timer backoff.Timer
	if t.cfg.NewTimer != nil {
		timer = t.cfg.NewTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, b, notify, timer)
	if err == nil {
		return nil
	}

	// Context cancellation during a backoff sleep surfaces as a bare context
	// error; give it the network kind like any other aborted attempt.
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		return newNetworkError(err)
	}
	return err
}
