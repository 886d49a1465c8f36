package model

import (
	"sync"
	"time"
)

// SourceStatus represents the availability state of a breach data source.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides human-readable
// output when needed.
type SourceStatus int

const (
	// StatusUnknown is the initial state before any request has been made.
	StatusUnknown SourceStatus = iota

	// StatusHealthy indicates the source is responding normally.
	StatusHealthy

	// StatusDegraded indicates elevated failures (2+ consecutive failures
	// or success rate below 0.7). Degraded sources are still queried but
	// penalized in priority.
	StatusDegraded

	// StatusRateLimited indicates the source returned HTTP 429 and its
	// cooldown has not yet elapsed.
	StatusRateLimited

	// StatusUnavailable indicates 5+ consecutive failures. Unavailable
	// sources are skipped until they recover.
	StatusUnavailable
)

// String returns a human-readable representation of the status.
func (s SourceStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusRateLimited:
		return "rate_limited"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Thresholds for the health state machine. Status is recomputed as a pure
// function of these counters after every recorded call.
const (
	// unavailableAfter is the consecutive-failure count that marks a source
	// unavailable.
	unavailableAfter = 5

	// degradedAfter is the consecutive-failure count that marks a source
	// degraded.
	degradedAfter = 2

	// degradedSuccessRate is the success-rate floor below which a source is
	// considered degraded.
	degradedSuccessRate = 0.7

	// defaultRateLimitCooldown is used when a 429 response carries no
	// Retry-After hint.
	defaultRateLimitCooldown = 60 * time.Second

	// latencyEMAWeight is the weight of a new sample in the response-time
	// exponential moving average.
	latencyEMAWeight = 0.2
)

// SourceHealth tracks per-source rolling reliability state for the lifetime
// of the process. It is shared mutable state: concurrent queries for the same
// source update it from multiple goroutines, so every read-modify-write is
// guarded by the internal mutex.
//
// Health state is never shared between sources, so there is no cross-source
// lock contention.
type SourceHealth struct {
	mu sync.Mutex

	status              SourceStatus
	lastSuccess         time.Time
	lastFailure         time.Time
	consecutiveFailures int
	rateLimitReset      time.Time
	avgResponseTimeMS   float64
	successRate         float64
	totalRequests       int
	successfulRequests  int
}

// NewSourceHealth returns health state in the initial UNKNOWN status with a
// perfect success rate, matching a source that has never been queried.
func NewSourceHealth() *SourceHealth {
	return &SourceHealth{
		status:      StatusUnknown,
		successRate: 1.0,
	}
}

// RecordSuccess registers a successful call and its latency, then recomputes
// the status. The update is atomic with respect to the health counters.
func (h *SourceHealth) RecordSuccess(responseTimeMS float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastSuccess = time.Now()
	h.consecutiveFailures = 0
	h.totalRequests++
	h.successfulRequests++

	if h.avgResponseTimeMS == 0 {
		h.avgResponseTimeMS = responseTimeMS
	} else {
		h.avgResponseTimeMS = h.avgResponseTimeMS*(1-latencyEMAWeight) + responseTimeMS*latencyEMAWeight
	}

	h.updateSuccessRate()
	h.updateStatus()
}

// RecordFailure registers a failed call. When rateLimited is true the source
// enters a cooldown until retryAfter elapses (or the default cooldown when
// the provider gave no hint).
func (h *SourceHealth) RecordFailure(rateLimited bool, retryAfter time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastFailure = time.Now()
	h.consecutiveFailures++
	h.totalRequests++
	h.updateSuccessRate()

	if rateLimited {
		if retryAfter <= 0 {
			retryAfter = defaultRateLimitCooldown
		}
		h.rateLimitReset = time.Now().Add(retryAfter)
		h.status = StatusRateLimited
		return
	}
	h.updateStatus()
}

// updateSuccessRate recomputes successfulRequests/totalRequests.
// Callers must hold h.mu.
func (h *SourceHealth) updateSuccessRate() {
	if h.totalRequests > 0 {
		h.successRate = float64(h.successfulRequests) / float64(h.totalRequests)
	}
}

// updateStatus recomputes the status from the counters.
// Callers must hold h.mu.
func (h *SourceHealth) updateStatus() {
	switch {
	case !h.rateLimitReset.IsZero() && time.Now().Before(h.rateLimitReset):
		h.status = StatusRateLimited
	case h.consecutiveFailures >= unavailableAfter:
		h.status = StatusUnavailable
	case h.consecutiveFailures >= degradedAfter || h.successRate < degradedSuccessRate:
		h.status = StatusDegraded
	default:
		h.status = StatusHealthy
	}
}

// IsAvailable reports whether the source should be included in a fan-out.
// It returns false only for UNAVAILABLE sources and for RATE_LIMITED sources
// whose cooldown has not yet passed. A rate-limited source whose reset time
// has elapsed auto-clears back to HEALTHY here.
func (h *SourceHealth) IsAvailable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status == StatusRateLimited {
		if !h.rateLimitReset.IsZero() && !time.Now().Before(h.rateLimitReset) {
			h.status = StatusHealthy
			h.rateLimitReset = time.Time{}
			return true
		}
		return false
	}
	return h.status != StatusUnavailable
}

// Status returns the current status.
func (h *SourceHealth) Status() SourceStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// HealthSnapshot is an immutable copy of the health counters, used for
// introspection (the sources command and the /api/v1/sources endpoint).
type HealthSnapshot struct {
	Status              string  `json:"status"`
	SuccessRate         float64 `json:"success_rate"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	AvgResponseTimeMS   float64 `json:"avg_response_time_ms"`
	TotalRequests       int     `json:"total_requests"`
}

// Snapshot returns a point-in-time copy of the health counters.
func (h *SourceHealth) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	return HealthSnapshot{
		Status:              h.status.String(),
		SuccessRate:         h.successRate,
		ConsecutiveFailures: h.consecutiveFailures,
		AvgResponseTimeMS:   h.avgResponseTimeMS,
		TotalRequests:       h.totalRequests,
	}
}

// StatusMultiplier returns the priority weight for the current status:
// 1.0 for healthy, 0.5 for degraded, 0.1 otherwise. Used by the priority
// score that ranks sources without excluding them.
func (h *SourceHealth) StatusMultiplier() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.status {
	case StatusHealthy, StatusUnknown:
		return 1.0
	case StatusDegraded:
		return 0.5
	default:
		return 0.1
	}
}

// AvgResponseTimeMS returns the latency moving average.
func (h *SourceHealth) AvgResponseTimeMS() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.avgResponseTimeMS
}

// SuccessRate returns the rolling success rate.
func (h *SourceHealth) SuccessRate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.successRate
}
