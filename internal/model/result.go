package model

import "time"

// Breach is the canonical raw breach record that every source client maps
// provider JSON into. The provider response shapes vary wildly (flat arrays,
// nested "breaches_details" objects, bare strings); clients are responsible
// for flattening them into this shape before correlation.
type Breach struct {
	// Name is the breach name as reported by the provider.
	Name string `json:"name"`

	// Date is the breach date string in whatever format the provider used.
	// Year extraction happens during correlation, not here.
	Date string `json:"date,omitempty"`

	// DataClasses lists the categories of data exposed (e.g. "Passwords").
	DataClasses []string `json:"data_classes,omitempty"`

	// Description is the provider's free-text description, if any.
	Description string `json:"description,omitempty"`

	// RecordsExposed is the number of records in the breach, 0 if unknown.
	RecordsExposed int64 `json:"records_exposed,omitempty"`

	// SourceAPI names the provider that reported this record.
	SourceAPI string `json:"source_api,omitempty"`
}

// SourceResult is one source's answer for one identity query.
// It is created fresh per request by a source client, is immutable once
// returned, and is consumed by the correlation engine.
//
// Design decision: failures are captured in the Error field rather than
// returned as Go errors. A source failing is a normal outcome of the fan-out,
// not an exceptional condition; representing it as data lets the orchestrator
// collect every source's outcome uniformly.
type SourceResult struct {
	// SourceName identifies the provider that produced this result.
	SourceName string `json:"source_name"`

	// Breached is true when the provider reported at least one breach.
	Breached bool `json:"breached"`

	// Breaches holds the raw breach records, already mapped into the
	// canonical Breach shape.
	Breaches []Breach `json:"breaches,omitempty"`

	// Error holds the failure message when the call did not succeed.
	// Empty means success (including "not breached" responses).
	Error string `json:"error,omitempty"`

	// RateLimited is true when the failure was an HTTP 429. The rate limiter
	// treats this differently from generic failures.
	RateLimited bool `json:"rate_limited,omitempty"`

	// RetryAfter is the provider's backoff hint from a 429 response,
	// zero when the provider gave none.
	RetryAfter time.Duration `json:"-"`

	// ResponseTimeMS is the wall-clock duration of the call in milliseconds,
	// used for health and latency tracking.
	ResponseTimeMS float64 `json:"response_time_ms"`

	// Timestamp records when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Success reports whether the source call completed without error.
// A "not breached" answer is a success; only transport, API, and rate-limit
// failures count as errors.
func (r *SourceResult) Success() bool {
	return r.Error == ""
}
