package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior of the public breach APIs: generous enough for
// slow free-tier endpoints, conservative enough to stay under their rate
// limits.
const (
	// DefaultTimeout is the deadline for each breach data source's whole
	// query, retries included. The free public APIs routinely take several
	// seconds under load, so anything much shorter produces spurious
	// failures.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxConcurrentSources caps simultaneous in-flight requests
	// across all sources. Six sources exist today, so 10 leaves headroom
	// for overlapping checks without flooding anyone.
	DefaultMaxConcurrentSources = 10

	// DefaultMaxRetries is the number of additional attempts after a
	// failed source request. Two retries with exponential backoff covers
	// transient failures without tripling latency on hard outages.
	DefaultMaxRetries = 2

	// DefaultBatchSize is the number of emails checked concurrently when
	// processing a list. Each email fans out to six sources, so batch
	// concurrency multiplies quickly against per-source rate limits.
	DefaultBatchSize = 3

	// DefaultUserAgent identifies NothingHide in HTTP requests.
	// Several breach APIs reject requests without a descriptive User-Agent.
	DefaultUserAgent = "NothingHide/1.0 (Security Exposure Intelligence)"

	// DefaultServeAddr is the listen address for the HTTP API server.
	DefaultServeAddr = ":8080"

	// AppName is the application name used for XDG directory paths.
	AppName = "nothinghide"
)

// Config holds all configuration options for NothingHide.
// This struct is designed to be populated from CLI flags and the config
// file, then passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Timeout is the deadline for each individual source request.
	Timeout time.Duration

	// MaxConcurrentSources caps simultaneous in-flight source requests.
	MaxConcurrentSources int

	// MaxRetries is the per-source retry budget for each check.
	MaxRetries int

	// BatchSize is the number of emails checked concurrently when a list
	// of targets is processed.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .nothinghide in the current
	// directory, the home directory, and the XDG config directory.
	ConfigFilePath string

	// Sources holds per-source overrides loaded from the config file.
	Sources *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Targets is the list of email addresses to check.
	Targets []string

	// XposedOrNotAPIKey optionally authenticates XposedOrNot requests.
	// Loaded from the XON_API_KEY environment variable (or .env).
	XposedOrNotAPIKey string

	// UserAgent is the User-Agent header sent with source requests.
	UserAgent string

	// DBDir is the directory path for storing the SQLite history database.
	// When empty, check results are not persisted.
	// Defaults to the XDG data directory when --save is used.
	DBDir string

	// SaveToDB indicates whether to save check results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// ServeAddr is the listen address for the HTTP API server.
	ServeAddr string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, batch
// size). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:              DefaultTimeout,
		MaxConcurrentSources: DefaultMaxConcurrentSources,
		MaxRetries:           DefaultMaxRetries,
		BatchSize:            DefaultBatchSize,
		UserAgent:            DefaultUserAgent,
		ServeAddr:            DefaultServeAddr,
	}
}

// XDGDataDir returns the XDG data directory for NothingHide.
// On Linux: ~/.local/share/nothinghide
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for NothingHide.
// On Linux: ~/.config/nothinghide
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for NothingHide.
// On Linux: ~/.cache/nothinghide
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.MaxConcurrentSources <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
