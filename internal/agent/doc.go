// Package agent contains the multi-source breach intelligence orchestrator.
//
// A single Check call validates the identity, fans out concurrently to every
// configured breach data source under the shared rate limiter, retries each
// source independently with exponential backoff, converts every outcome
// (success, API error, timeout) into a SourceResult, and hands the full set
// to the correlation engine. One slow or failing source never blocks or
// cancels its siblings.
//
// Only two conditions surface as errors to the caller: malformed input
// (model.ValidationError, raised before any network activity) and total
// source exhaustion (model.NetworkError). Partial failure is a normal return
// with SourcesFailed populated.
package agent
