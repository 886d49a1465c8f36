package model

import (
	"fmt"
	"time"
)

// Error taxonomy for breach intelligence operations.
//
// Design decision: These are typed error structs rather than sentinel values
// because callers need the attached context (field name, status code, retry
// hint) and discriminate with errors.As. Per-source failures never surface as
// these errors; they are captured in SourceResult.Error. Only invalid input
// (ValidationError) and total source exhaustion (NetworkError) escalate to
// the caller.

// ValidationError reports malformed input: bad email syntax or an empty
// password. It is raised before any network activity and is never retried.
type ValidationError struct {
	// Field names the offending input ("email", "password").
	Field string

	// Message describes what is wrong with the input.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (field=%s)", e.Message, e.Field)
	}
	return e.Message
}

// NetworkError reports a transport-level failure (timeout, connection
// refused) or, at the orchestrator level, the terminal condition that every
// configured source failed.
type NetworkError struct {
	// Message describes the failure.
	Message string

	// URL is the request URL when the failure is tied to one request.
	URL string
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s (url=%s)", e.Message, e.URL)
	}
	return e.Message
}

// APIError reports a non-2xx, non-404 response from a provider.
type APIError struct {
	// Source names the provider.
	Source string

	// StatusCode is the HTTP status the provider returned.
	StatusCode int

	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s (api=%s, status=%d)", e.Message, e.Source, e.StatusCode)
}

// RateLimitError is the distinguished APIError subtype for HTTP 429.
// It drives the rate limiter's backoff rather than being treated as a
// generic failure.
type RateLimitError struct {
	APIError

	// RetryAfter is the provider's cooldown hint, zero when absent.
	RetryAfter time.Duration
}

// NewRateLimitError builds a RateLimitError for the given provider.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	e := &RateLimitError{
		APIError: APIError{
			Source:     source,
			StatusCode: 429,
			Message:    "rate limit exceeded for " + source,
		},
		RetryAfter: retryAfter,
	}
	if retryAfter > 0 {
		e.Message = fmt.Sprintf("rate limit exceeded for %s, retry after %s", source, retryAfter)
	}
	return e
}
