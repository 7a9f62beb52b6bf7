// Package storage is the local SQLite cache for the raw problem corpus and
// scraped statement text.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes; scraper workers share this.
	db.SetMaxOpenConns(1)

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

func createSchema(db *sql.DB) error {
	schema := `
		-- Raw corpus mirror, keyed by graph key ("1352/C")
		CREATE TABLE IF NOT EXISTS problems (
			key TEXT PRIMARY KEY,
			contest_id INTEGER NOT NULL,
			idx TEXT NOT NULL,
			name TEXT NOT NULL,
			rating INTEGER NOT NULL DEFAULT 0,
			tags_json TEXT NOT NULL,
			solved_count INTEGER NOT NULL DEFAULT 0
		);

		-- Scraped statement text
		CREATE TABLE IF NOT EXISTS statements (
			key TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		-- Full-text search over statements
		CREATE VIRTUAL TABLE IF NOT EXISTS statements_fts USING fts5(
			key UNINDEXED,
			text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// prepareFTSQuery quotes queries that contain FTS5 operators.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	if strings.ContainsAny(query, "\"*+-:(){}[]^~/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
