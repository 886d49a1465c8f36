package ratelimit

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

// RetryStrategy decides whether and how long to wait before retrying a
// failed source call. Delays grow exponentially with the attempt number and
// are optionally jittered to avoid thundering-herd retries against a
// recovering provider.
type RetryStrategy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay for attempt 0.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// ExponentialBase is the growth factor per attempt.
	ExponentialBase float64

	// Jitter multiplies each delay by a uniform random factor in [0.5, 1.5).
	Jitter bool
}

// NewRetryStrategy returns the default strategy: up to maxRetries retries
// with jittered exponential backoff starting at one second, capped at thirty.
func NewRetryStrategy(maxRetries int) *RetryStrategy {
	return &RetryStrategy{
		MaxRetries:      maxRetries,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// ShouldRetry reports whether another attempt is worthwhile after the given
// zero-based attempt failed. Validation failures are never retried; the input
// will not get better. Network, API, and rate-limit errors retry up to
// MaxRetries.
func (s *RetryStrategy) ShouldRetry(attempt int, err error) bool {
	if attempt >= s.MaxRetries {
		return false
	}

	var validationErr *model.ValidationError
	return !errors.As(err, &validationErr)
}

// Delay returns how long to wait before re-attempting after the given
// zero-based attempt.
func (s *RetryStrategy) Delay(attempt int) time.Duration {
	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(attempt))
	if delay > float64(s.MaxDelay) {
		delay = float64(s.MaxDelay)
	}

	if s.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}
