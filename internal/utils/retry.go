package utils

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// PermanentError marks a configuration-class failure that must surface
// immediately instead of consuming the retry budget.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so RunWithRetries stops at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// RetryOptions controls how RunWithRetries drives an action.
// Every call site configures attempts/delay independently based on the
// latency characteristics of that call (chain writes: few attempts, long
// delay; attestation polling: many attempts, medium delay).
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// RunWithRetries executes action up to opts.MaxAttempts times, sleeping
// BaseDelay * attempt before retry attempt+1 (linear backoff, no jitter).
// It retries unconditionally on any error and returns the last error
// unmodified once attempts are exhausted.
func RunWithRetries[T any](ctx context.Context, label string, opts RetryOptions, action func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := action()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			return zero, permanent.Err
		}

		logrus.WithFields(logrus.Fields{
			"operation": label,
			"attempt":   attempt,
			"max":       opts.MaxAttempts,
		}).WithError(err).Warn("operation failed, will retry")

		if attempt == opts.MaxAttempts {
			break
		}

		delay := opts.BaseDelay * time.Duration(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
