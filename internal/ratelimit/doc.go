// Package ratelimit bounds outbound request pressure against the breach data
// providers.
//
// It combines three mechanisms:
//   - a global counting semaphore so one query never has more than N network
//     calls in flight regardless of source count
//   - a per-source sliding window (max requests per window)
//   - adaptive exponential backoff driven by HTTP 429 signals, honoring the
//     provider's Retry-After hint when present
//
// The package also provides the retry strategy used for per-source retries:
// exponential backoff with optional jitter, never retrying validation
// failures.
package ratelimit
