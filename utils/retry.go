package utils

import (
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
// A zero BaseDelay disables the back-off sleep between attempts; callers
// that pace themselves (the page fetcher randomizes its own navigation
// delay) set it to zero.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do executes fn up to MaxAttempts times, handing it the 1-based attempt
// number so callers can vary per-attempt behaviour (e.g. a fresh browsing
// identity each time).
func (r *RetryConfig) Do(operationName string, fn func(attempt int) error) error {
	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v",
				operationName, attempt, r.MaxAttempts, lastErr)
			if delay > 0 {
				time.Sleep(delay)
				delay *= 2
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
