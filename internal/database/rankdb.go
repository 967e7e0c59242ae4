package database

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
)

// FileName is the name of the database file inside the database directory.
const FileName = "linkrank.db"

// RankDB provides SQLite-based storage for crawled documents and ranking runs.
type RankDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RankDB behavior.
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

// Open opens or creates a RankDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RankDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (run 'linkrank import' first)", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
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

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RankDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RankDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RankDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RankDB) createTables() error {
	schema := `
	-- Documents store one crawled page per URL
	CREATE TABLE IF NOT EXISTS documents (
		url TEXT PRIMARY KEY,
		title TEXT,
		text TEXT,
		source TEXT,
		imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Links store the outbound links of each document in crawl order
	CREATE TABLE IF NOT EXISTS links (
		source_url TEXT NOT NULL,
		position INTEGER NOT NULL,
		target_url TEXT NOT NULL,
		PRIMARY KEY(source_url, position)
	);

	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_url);

	-- Rank runs store the parameters and statistics of each ranking
	CREATE TABLE IF NOT EXISTS rank_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		corpus TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ns INTEGER,
		alpha REAL NOT NULL,
		tolerance REAL NOT NULL,
		max_iterations INTEGER NOT NULL,
		representation TEXT,
		fingerprint TEXT,
		document_count INTEGER,
		vertex_count INTEGER,
		edge_count INTEGER,
		dangling_count INTEGER,
		iterations INTEGER,
		cache_hit INTEGER DEFAULT 0,
		steps TEXT,
		warnings TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_corpus ON rank_runs(corpus);

	-- Rank scores store the score of every URL of a run
	CREATE TABLE IF NOT EXISTS rank_scores (
		run_id INTEGER NOT NULL REFERENCES rank_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_scores_url ON rank_scores(url);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
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
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// encodeStrings serializes a string list for a TEXT column.
func encodeStrings(list []string) (string, error) {
	if len(list) == 0 {
		return "", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeStrings parses a TEXT column written by encodeStrings.
func decodeStrings(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s.String), &list); err != nil {
		return nil
	}
	return list
}

// rollback aborts tx, keeping the original error.
func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
	}
	return err
}
