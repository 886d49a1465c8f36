package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Default limiter settings. The window matches the most restrictive free
// provider tier; the backoff bounds keep a misbehaving source from stalling
// a whole fan-out.
const (
	// DefaultRequestsPerWindow is the per-source request budget per window.
	DefaultRequestsPerWindow = 60

	// DefaultWindow is the sliding-window length.
	DefaultWindow = time.Minute

	// DefaultGlobalConcurrent is the global in-flight request cap.
	DefaultGlobalConcurrent = 10

	// minBackoff is the floor the backoff decays to after successes.
	minBackoff = time.Second

	// maxBackoff caps the exponential growth under repeated 429s.
	maxBackoff = 60 * time.Second
)

// sourceState tracks one source's window and backoff. All access goes
// through the limiter's mutex.
type sourceState struct {
	requestsMade   int
	windowStart    time.Time
	backoffUntil   time.Time
	currentBackoff time.Duration
}

// Limiter bounds global concurrency and per-source request rate across every
// concurrent query in the process. The semaphore and the per-source state map
// are shared by all sources and all queries, so both are safe for concurrent
// acquire/release.
type Limiter struct {
	requestsPerWindow int
	window            time.Duration
	budgets           map[string]int

	sem    *semaphore.Weighted
	logger *slog.Logger

	mu      sync.Mutex
	sources map[string]*sourceState
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithRequestsPerWindow overrides the per-source window budget.
func WithRequestsPerWindow(n int) LimiterOption {
	return func(l *Limiter) {
		if n > 0 {
			l.requestsPerWindow = n
		}
	}
}

// WithSourceBudget overrides the window budget for a single source.
// Sources without an override use the global budget.
func WithSourceBudget(source string, n int) LimiterOption {
	return func(l *Limiter) {
		if n > 0 {
			l.budgets[source] = n
		}
	}
}

// WithWindow overrides the sliding-window length.
func WithWindow(d time.Duration) LimiterOption {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithLimiterLogger sets the logger used for backoff events.
func WithLimiterLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		l.logger = logger
	}
}

// NewLimiter creates a Limiter with the given global concurrency cap.
// A non-positive cap falls back to the default.
func NewLimiter(globalConcurrent int, opts ...LimiterOption) *Limiter {
	if globalConcurrent <= 0 {
		globalConcurrent = DefaultGlobalConcurrent
	}

	l := &Limiter{
		requestsPerWindow: DefaultRequestsPerWindow,
		window:            DefaultWindow,
		budgets:           make(map[string]int),
		sem:               semaphore.NewWeighted(int64(globalConcurrent)),
		sources:           make(map[string]*sourceState),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// state returns the tracking state for a source, creating it on first use.
// Callers must hold l.mu.
func (l *Limiter) state(source string) *sourceState {
	s, ok := l.sources[source]
	if !ok {
		s = &sourceState{windowStart: time.Now(), currentBackoff: minBackoff}
		l.sources[source] = s
	}
	return s
}

// budget returns the window budget for a source, honoring overrides.
// Callers must hold l.mu.
func (l *Limiter) budget(source string) int {
	if b, ok := l.budgets[source]; ok {
		return b
	}
	return l.requestsPerWindow
}

// waitTime returns how long the source must wait before its next request:
// the remaining backoff, or the remainder of an exhausted window.
// Callers must hold l.mu.
func (l *Limiter) waitTime(source string, s *sourceState) time.Duration {
	now := time.Now()

	if now.Before(s.backoffUntil) {
		return s.backoffUntil.Sub(now)
	}

	if elapsed := now.Sub(s.windowStart); elapsed >= l.window {
		s.requestsMade = 0
		s.windowStart = now
	}
	if s.requestsMade >= l.budget(source) {
		return l.window - now.Sub(s.windowStart)
	}
	return 0
}

// Acquire blocks until the source's backoff window has cleared and a global
// concurrency slot is free, then records the request against the source's
// window. It returns false when the window budget is still exhausted after
// waiting, and an error only when ctx is cancelled.
//
// Every successful Acquire must be paired with a Release.
func (l *Limiter) Acquire(ctx context.Context, source string) (bool, error) {
	l.mu.Lock()
	wait := l.waitTime(source, l.state(source))
	l.mu.Unlock()

	if wait > 0 {
		l.logger.Debug("waiting for rate limit", "source", source, "wait", wait)
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(source)
	if l.waitTime(source, s) > 0 {
		// Another goroutine consumed the remaining budget while we waited
		// for the semaphore.
		l.sem.Release(1)
		return false, nil
	}
	s.requestsMade++
	return true, nil
}

// Release returns the global slot and adjusts the source's backoff: a
// rate-limit signal doubles it (or adopts the provider's retryAfter hint, cap
// at the maximum), a success halves it back toward the floor.
func (l *Limiter) Release(source string, success, rateLimited bool, retryAfter time.Duration) {
	l.mu.Lock()

	s := l.state(source)
	switch {
	case rateLimited:
		if retryAfter > 0 {
			if retryAfter > maxBackoff {
				retryAfter = maxBackoff
			}
			s.currentBackoff = retryAfter
		} else {
			s.currentBackoff = min(s.currentBackoff*2, maxBackoff)
		}
		s.backoffUntil = time.Now().Add(s.currentBackoff)
		l.logger.Info("rate limited, backing off", "source", source, "backoff", s.currentBackoff)
	case success:
		s.currentBackoff = max(s.currentBackoff/2, minBackoff)
		s.backoffUntil = time.Time{}
	}

	l.mu.Unlock()
	l.sem.Release(1)
}

// Stats is a point-in-time view of one source's limiter state.
type Stats struct {
	RequestsMade   int           `json:"requests_made"`
	CurrentBackoff time.Duration `json:"current_backoff"`
	WaitTime       time.Duration `json:"wait_time"`
}

// SourceStats returns the limiter state for one source.
func (l *Limiter) SourceStats(source string) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.state(source)
	return Stats{
		RequestsMade:   s.requestsMade,
		CurrentBackoff: s.currentBackoff,
		WaitTime:       l.waitTime(source, s),
	}
}
