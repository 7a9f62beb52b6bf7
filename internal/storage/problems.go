package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

// ReplaceProblems swaps the cached corpus for problems in one transaction.
func (d *DB) ReplaceProblems(problems []problem.Problem) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM problems"); err != nil {
		return fmt.Errorf("clearing problems table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO problems (key, contest_id, idx, name, rating, tags_json, solved_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing problems insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range problems {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("marshaling tags for %s: %w", p.Key(), err)
		}
		if _, err := stmt.Exec(p.Key(), p.ID.Contest, p.ID.Index, p.Name, p.Rating, string(tagsJSON), p.SolvedCount); err != nil {
			return fmt.Errorf("inserting problem %s: %w", p.Key(), err)
		}
	}

	return tx.Commit()
}

// Problem returns the cached record for a graph key.
func (d *DB) Problem(key string) (problem.Problem, bool, error) {
	var (
		p        problem.Problem
		tagsJSON string
	)
	err := d.db.QueryRow(`
		SELECT contest_id, idx, name, rating, tags_json, solved_count
		FROM problems WHERE key = ?`, key,
	).Scan(&p.ID.Contest, &p.ID.Index, &p.Name, &p.Rating, &tagsJSON, &p.SolvedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return problem.Problem{}, false, nil
	}
	if err != nil {
		return problem.Problem{}, false, fmt.Errorf("looking up %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
		return problem.Problem{}, false, fmt.Errorf("decoding tags for %s: %w", key, err)
	}
	return p, true, nil
}

// Ratings returns every known rating keyed by graph key. Unrated problems
// are omitted.
func (d *DB) Ratings() (map[string]int, error) {
	rows, err := d.db.Query("SELECT key, rating FROM problems WHERE rating > 0")
	if err != nil {
		return nil, fmt.Errorf("listing ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[string]int)
	for rows.Next() {
		var (
			key    string
			rating int
		)
		if err := rows.Scan(&key, &rating); err != nil {
			return nil, fmt.Errorf("scanning rating: %w", err)
		}
		ratings[key] = rating
	}
	return ratings, rows.Err()
}

// CountProblems returns the number of cached problems.
func (d *DB) CountProblems() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM problems").Scan(&count)
	return count, err
}
