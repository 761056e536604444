package retry

import (
	"context"
	"time"
)

// SleepFunc waits for the given duration or until the context is done.
// Injectable so retry behavior is testable without real timers.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes a bounded retry: how many attempts, how long to wait
// between them, and which errors are worth retrying at all.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
	Sleep       SleepFunc
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to MaxAttempts times. After a failed attempt it sleeps
// Backoff(attempt) before retrying, but only while Retryable accepts the
// error and attempts remain; any other error is terminal and returned as-is.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			return err
		}
		if sleepErr := sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}
