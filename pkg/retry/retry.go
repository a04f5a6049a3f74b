// Package retry provides a bounded retry helper with linear backoff,
// decoupled from any particular storage call.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrInvalidAttempts = errors.New("attempts must be at least 1")

// Notify is called after each failed attempt with the error and the delay
// before the next attempt.
type Notify func(err error, next time.Duration)

type config struct {
	notify Notify
}

type Option func(*config)

func WithNotify(fn Notify) Option {
	return func(c *config) {
		c.notify = fn
	}
}

// linearBackOff waits attempt*interval between attempts.
type linearBackOff struct {
	interval time.Duration
	attempt  int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.attempt++

	return time.Duration(l.attempt) * l.interval
}

func (l *linearBackOff) Reset() {
	l.attempt = 0
}

// Do runs op up to attempts times, waiting attempt*interval between
// failures. It stops early when ctx is cancelled and returns the last
// error once attempts are exhausted. Wrap an error with Permanent to stop
// retrying immediately.
func Do[T any](ctx context.Context, attempts uint, interval time.Duration, op func() (T, error), opts ...Option) (T, error) {
	var zero T
	if attempts < 1 {
		return zero, ErrInvalidAttempts
	}

	c := config{}
	for _, opt := range opts {
		opt(&c)
	}

	bopts := []backoff.RetryOption{
		backoff.WithBackOff(&linearBackOff{interval: interval}),
		backoff.WithMaxTries(attempts),
	}
	if c.notify != nil {
		bopts = append(bopts, backoff.WithNotify(backoff.Notify(c.notify)))
	}

	return backoff.Retry(ctx, backoff.Operation[T](op), bopts...)
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
