// Package log provides secure logging utilities for NothingHide.
//
// The tool handles passwords, password hashes, and API keys, none of which
// may ever reach log output. SecureHandler wraps any slog.Handler and
// redacts attributes whose keys or values look sensitive before they are
// written, so accidental logging of a secret renders ***REDACTED*** rather
// than the secret itself.
package log
