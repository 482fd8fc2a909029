// Package backoff provides exponential backoff and a retry loop built on it.
package backoff

import (
	"context"
	"errors"
	"math"
	"time"
)

// Config for exponential backoff. Zero values use defaults.
type Config struct {
	Initial  time.Duration // default: 100ms
	Max      time.Duration // default: 5s
	Attempts int           // total attempts for Retry, default: 4
}

const (
	defaultInitial  = 100 * time.Millisecond
	defaultMax      = 5 * time.Second
	defaultAttempts = 4
)

func (c *Config) withDefaults() Config {
	out := Config{Initial: defaultInitial, Max: defaultMax, Attempts: defaultAttempts}
	if c == nil {
		return out
	}
	if c.Initial > 0 {
		out.Initial = c.Initial
	}
	if c.Max > 0 {
		out.Max = c.Max
	}
	if c.Attempts > 0 {
		out.Attempts = c.Attempts
	}
	return out
}

// Exponential calculates the delay before retry number attempt.
// Attempt 1 returns initial, attempt 2 returns initial*2, etc.
func Exponential(attempt int, cfg *Config) time.Duration {
	c := cfg.withDefaults()
	if attempt < 1 {
		return c.Initial
	}
	d := float64(c.Initial) * math.Pow(2.0, float64(attempt-1))
	if d > float64(c.Max) {
		d = float64(c.Max)
	}
	return time.Duration(d)
}

// permanentError stops Retry immediately.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// are used up, or ctx is done. It returns the last error fn produced, with
// any Permanent wrapper removed.
func Retry(ctx context.Context, cfg *Config, fn func(ctx context.Context) error) error {
	c := cfg.withDefaults()

	var lastErr error
	for attempt := range c.Attempts {
		if attempt > 0 {
			timer := time.NewTimer(Exponential(attempt, &c))
			select {
			case <-ctx.Done():
				timer.Stop()
				if lastErr != nil {
					return lastErr
				}
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}
	return lastErr
}
