// Package history provides SQLite-based persistence for check results.
//
// Every completed email check can be stored with its full correlated result
// as JSON plus a few extracted columns (breach count, risk score) for cheap
// listing queries. This enables trend inspection: comparing a new check
// against the previous one for the same address reveals newly surfaced
// breaches without re-querying any source.
//
// Passwords and password check outcomes are never persisted.
package history
