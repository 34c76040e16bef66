// Package retry wraps activity-source fetch calls with exponential backoff.
// Only errors classified retryable are tried again; everything else is
// returned to the caller on the first failure.
package retry

import (
	"context"
	"math/rand"
	"time"

	terrors "github.com/clearhours/trackd/internal/errors"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

// DefaultConfig returns sensible retry defaults for network fetches.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
	}
}

// backoff returns the sleep before the given zero-based attempt's retry:
// BaseDelay doubled per attempt, capped at MaxDelay, optionally jittered
// into [50%, 100%] of the computed delay.
func (c Config) backoff(attempt int) time.Duration {
	delay := c.BaseDelay << attempt
	if delay > c.MaxDelay || delay < c.BaseDelay {
		delay = c.MaxDelay
	}
	if c.Jitter {
		delay = delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
	}
	return delay
}

// Do runs fn until it succeeds, fails with a non-retryable error, exhausts
// the attempt budget, or ctx ends.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !terrors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.backoff(attempt)):
		}
	}
	return lastErr
}
