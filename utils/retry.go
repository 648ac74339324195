package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salary-trends/models"
)

// RetryConfig holds the parameters for the retry strategy.
// MaxAttempts of 1 (or less) means a single attempt.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do executes fn with exponential back-off retry logic. Only transient
// failures (see Retryable) are retried; the last error is returned as is.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || !Retryable(lastErr) {
			break
		}

		if r.Logger != nil {
			r.Logger.Warn("retrying",
				"operation", operationName,
				"attempt", attempt,
				"max_attempts", attempts,
				"delay", delay,
				"error", lastErr.Error())
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w", operationName, ctx.Err())
		case <-t.C:
		}
		delay *= 2
	}

	return lastErr
}

// Retryable reports whether err is worth another attempt: timeouts, network
// errors and 429/5xx responses.
func Retryable(err error) bool {
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case models.KindTimeout, models.KindNetwork:
		return true
	case models.KindStatus:
		return pe.StatusCode == 429 || pe.StatusCode >= 500
	}
	return false
}
