// Package retry runs model requests with exponential backoff and an
// optional request rate limit.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseBackoff = 1 * time.Second
	DefaultMaxBackoff  = 30 * time.Second
)

// retryableError marks a failure worth another attempt (connection refused,
// timeouts, 429, 5xx).
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// Retryable wraps err so Do will try again.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Policy controls attempts, backoff and throttling.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseBackoff is the wait after the first failure. It doubles each attempt.
	BaseBackoff time.Duration

	// MaxBackoff caps a single wait.
	MaxBackoff time.Duration

	// Exhausted is wrapped into the error returned once attempts run out.
	Exhausted error

	limiter *rate.Limiter
}

// NewPolicy returns a policy with the given attempt cap and request rate.
// A non-positive requestsPerSecond disables throttling.
func NewPolicy(maxAttempts int, requestsPerSecond float64, exhausted error) Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	p := Policy{
		MaxAttempts: maxAttempts,
		BaseBackoff: DefaultBaseBackoff,
		MaxBackoff:  DefaultMaxBackoff,
		Exhausted:   exhausted,
	}
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return p
}

// Backoff returns the wait before the given retry (1-based).
func (p Policy) Backoff(retry int) time.Duration {
	d := p.BaseBackoff * time.Duration(1<<(retry-1))
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// attempt cap is reached.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}

	if p.Exhausted != nil {
		return fmt.Errorf("%w: failed after %d attempts: %w", p.Exhausted, attempts, lastErr)
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
