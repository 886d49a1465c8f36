// Package model defines the core data structures used throughout NothingHide.
//
// This package contains the following main types:
//   - SourceResult: One breach data source's answer for one identity query
//   - CorrelatedBreach / CorrelatedResult: Canonical merged breach intelligence
//   - SourceHealth: Per-source rolling reliability state
//   - ValidationError / NetworkError / APIError / RateLimitError: Error taxonomy
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (source, correlate, agent, report, history)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
