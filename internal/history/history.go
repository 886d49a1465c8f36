package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nothinghide/nothinghide/internal/model"
)

// DB provides SQLite-based storage for email check history.
//
// Design decision: full results are stored as a JSON column alongside a few
// extracted scalar columns. The JSON preserves every field without schema
// churn as the result shape evolves; the scalars make history listings cheap.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a history database at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "nothinghide.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite DSN: mode=rw prevents creating new files,
	// mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent batch saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *DB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *DB) createTables() error {
	schema := `
	-- Check records store one row per completed email check
	CREATE TABLE IF NOT EXISTS checks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		domain TEXT,
		breached INTEGER NOT NULL DEFAULT 0,
		breach_count INTEGER NOT NULL DEFAULT 0,
		risk_score REAL NOT NULL DEFAULT 0,
		sources_succeeded INTEGER NOT NULL DEFAULT 0,
		sources_failed INTEGER NOT NULL DEFAULT 0,
		result_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_checks_email ON checks(email);
	CREATE INDEX IF NOT EXISTS idx_checks_domain ON checks(domain);
	CREATE INDEX IF NOT EXISTS idx_checks_timestamp ON checks(timestamp);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveResult stores a completed check result. Batch marker results (those
// carrying an Error) are rejected.
func (hdb *DB) SaveResult(ctx context.Context, result *model.CorrelatedResult) (int64, error) {
	if result == nil {
		return 0, errors.New("nil result")
	}
	if result.Error != "" {
		return 0, fmt.Errorf("refusing to save failed check for %s: %s", result.Email, result.Error)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	query := `
	INSERT INTO checks (email, domain, breached, breach_count, risk_score, sources_succeeded, sources_failed, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := hdb.db.ExecContext(ctx, query,
		result.Email,
		result.Domain,
		result.Breached,
		result.BreachCount,
		result.RiskScore,
		len(result.SourcesSucceeded),
		len(result.SourcesFailed),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert check record: %w", err)
	}

	return res.LastInsertId()
}

// LatestCheck retrieves the most recent check result for an email address.
// Returns (nil, nil) when no history exists.
func (hdb *DB) LatestCheck(ctx context.Context, email string) (*model.CorrelatedResult, error) {
	query := `
	SELECT result_json FROM checks
	WHERE email = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, email).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check record: %w", err)
	}

	var result model.CorrelatedResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse check record: %w", err)
	}

	return &result, nil
}

// ChecksForEmail retrieves all stored results for an email address, most
// recent first. Malformed rows are skipped.
func (hdb *DB) ChecksForEmail(ctx context.Context, email string) ([]*model.CorrelatedResult, error) {
	query := `
	SELECT result_json FROM checks
	WHERE email = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query check history: %w", err)
	}
	defer rows.Close()

	var results []*model.CorrelatedResult
	for rows.Next() {
		var resultJSON string
		if err := rows.Scan(&resultJSON); err != nil {
			return nil, fmt.Errorf("failed to scan check record: %w", err)
		}

		var result model.CorrelatedResult
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			continue // Skip malformed records
		}
		results = append(results, &result)
	}

	return results, rows.Err()
}

// CheckMetadata contains summary information about a stored check.
// This is used for displaying history without loading full results.
type CheckMetadata struct {
	// ID is the unique identifier of the check in the database.
	ID int64

	// Email is the checked address.
	Email string

	// Domain is the registrable domain of the address.
	Domain string

	// Breached reports whether any breach was found.
	Breached bool

	// BreachCount is the number of distinct correlated breaches.
	BreachCount int

	// RiskScore is the computed risk score (0-100).
	RiskScore float64

	// Timestamp is when the check was performed.
	Timestamp time.Time
}

// RecentChecks retrieves metadata for the most recent checks across all
// addresses, newest first. A limit of 0 or less means no limit.
func (hdb *DB) RecentChecks(ctx context.Context, limit int) ([]CheckMetadata, error) {
	query := `
	SELECT id, email, domain, breached, breach_count, risk_score, timestamp
	FROM checks
	ORDER BY timestamp DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent checks: %w", err)
	}
	defer rows.Close()

	var results []CheckMetadata
	for rows.Next() {
		var meta CheckMetadata
		var domain sql.NullString
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.Email, &domain, &meta.Breached,
			&meta.BreachCount, &meta.RiskScore, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan check metadata: %w", err)
		}

		meta.Domain = domain.String
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// CheckByID retrieves a full result by its database ID.
// Returns (nil, nil) when the ID does not exist.
func (hdb *DB) CheckByID(ctx context.Context, id int64) (*model.CorrelatedResult, error) {
	query := `
	SELECT result_json FROM checks
	WHERE id = ?
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check record: %w", err)
	}

	var result model.CorrelatedResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse check record: %w", err)
	}

	return &result, nil
}

// NewBreachesSince compares a result against the previous stored check for
// the same email and returns breaches present now but absent then. When no
// prior check exists, every breach in current is returned.
func (hdb *DB) NewBreachesSince(ctx context.Context, current *model.CorrelatedResult) ([]*model.CorrelatedBreach, error) {
	previous, err := hdb.LatestCheck(ctx, current.Email)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return current.Breaches, nil
	}

	known := make(map[string]bool, len(previous.Breaches))
	for _, b := range previous.Breaches {
		known[b.NormalizedName] = true
	}

	var fresh []*model.CorrelatedBreach
	for _, b := range current.Breaches {
		if !known[b.NormalizedName] {
			fresh = append(fresh, b)
		}
	}
	return fresh, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
