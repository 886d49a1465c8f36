// Package source wraps the external breach data providers behind a uniform
// Client interface.
//
// Each concrete client differs only in its URL template, auth headers, and
// the mapping from the provider's idiosyncratic JSON into the canonical
// model.Breach shape; the shared request plumbing (timing, status handling,
// health recording) lives in one place.
//
// The status-code contract every client follows:
//   - 404 is "not breached": a success with an empty breach list
//   - 429 is a distinguished rate-limit failure, carrying the Retry-After
//     hint when the provider sends one
//   - any other non-200 is a generic API error with the status code
//
// Fetch never returns a Go error; all failures are captured in the
// SourceResult so the orchestrator can collect every source's outcome
// uniformly.
package source
