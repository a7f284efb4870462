package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Token vectors per embedding model
		CREATE TABLE IF NOT EXISTS token_vectors (
			model TEXT NOT NULL,
			token TEXT NOT NULL,
			vector BLOB NOT NULL,
			PRIMARY KEY (model, token)
		);

		-- One row per segmentation run
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			title TEXT,
			date TEXT,
			model TEXT NOT NULL,
			segment_len INTEGER NOT NULL,
			greedy INTEGER NOT NULL,
			passages INTEGER NOT NULL,
			sentences INTEGER NOT NULL,
			segments INTEGER NOT NULL
		);

		-- Flattened segment records of a run, in document order
		CREATE TABLE IF NOT EXISTS segments (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			passage_id INTEGER NOT NULL,
			segment_id INTEGER NOT NULL,
			sentence TEXT NOT NULL,
			speaker TEXT,
			timestamp TEXT,
			PRIMARY KEY (run_id, seq)
		);

		-- Full-text search over stored sentences (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS segments_fts USING fts5(
			run_id UNINDEXED,
			seq UNINDEXED,
			sentence,
			speaker
		);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	// FTS5 uses double quotes for phrase matching
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		escaped := strings.ReplaceAll(w, "\"", "\"\"")
		terms = append(terms, "\""+escaped+"\"")
	}
	return strings.Join(terms, " ")
}
