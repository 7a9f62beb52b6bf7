package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveStatement stores statement text for a graph key, replacing any
// previous entry.
func (d *DB) SaveStatement(key, text string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO statements (key, text, fetched_at) VALUES (?, ?, ?)`,
		key, text, time.Now().Unix()); err != nil {
		return fmt.Errorf("saving statement %s: %w", key, err)
	}
	if _, err := tx.Exec("DELETE FROM statements_fts WHERE key = ?", key); err != nil {
		return fmt.Errorf("clearing fts for %s: %w", key, err)
	}
	if _, err := tx.Exec("INSERT INTO statements_fts (key, text) VALUES (?, ?)", key, text); err != nil {
		return fmt.Errorf("indexing statement %s: %w", key, err)
	}
	return tx.Commit()
}

// Statement returns the cached statement text for a graph key.
func (d *DB) Statement(key string) (string, bool, error) {
	var text string
	err := d.db.QueryRow("SELECT text FROM statements WHERE key = ?", key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading statement %s: %w", key, err)
	}
	return text, true, nil
}

// Statements returns every non-empty cached statement keyed by graph key.
func (d *DB) Statements() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, text FROM statements WHERE text != ''")
	if err != nil {
		return nil, fmt.Errorf("listing statements: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, text string
		if err := rows.Scan(&key, &text); err != nil {
			return nil, fmt.Errorf("scanning statement: %w", err)
		}
		out[key] = text
	}
	return out, rows.Err()
}

// StatementKeys returns the set of keys that already have a statement.
func (d *DB) StatementKeys() (map[string]bool, error) {
	rows, err := d.db.Query("SELECT key FROM statements")
	if err != nil {
		return nil, fmt.Errorf("listing statement keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// PurgeEmptyStatements deletes entries left empty by failed scrapes and
// returns how many were removed.
func (d *DB) PurgeEmptyStatements() (int, error) {
	if _, err := d.db.Exec("DELETE FROM statements_fts WHERE key IN (SELECT key FROM statements WHERE trim(text) = '')"); err != nil {
		return 0, fmt.Errorf("purging fts: %w", err)
	}
	res, err := d.db.Exec("DELETE FROM statements WHERE trim(text) = ''")
	if err != nil {
		return 0, fmt.Errorf("purging statements: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountStatements returns the number of cached statements.
func (d *DB) CountStatements() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM statements").Scan(&count)
	return count, err
}

// StatementHit is a full-text match over statements.
type StatementHit struct {
	Key     string
	Snippet string
}

// SearchStatements runs a full-text query over cached statements.
func (d *DB) SearchStatements(query string, limit int) ([]StatementHit, error) {
	q := prepareFTSQuery(query)
	if q == "" {
		return nil, nil
	}
	rows, err := d.db.Query(`
		SELECT key, snippet(statements_fts, 1, '[', ']', '...', 12)
		FROM statements_fts
		WHERE statements_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("searching statements: %w", err)
	}
	defer rows.Close()

	var hits []StatementHit
	for rows.Next() {
		var h StatementHit
		if err := rows.Scan(&h.Key, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
