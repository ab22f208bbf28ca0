package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dgallion1/dmukit/internal/dmu"
)

// descriptionPrefixLen is the number of leading description runes compared
// when neither label nor name identify a row.
const descriptionPrefixLen = 20

// MergeResult counts what a merge changed.
type MergeResult struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
}

type candidate struct {
	id          int64
	mapUnit     string
	name        string
	description string
	matched     bool
}

// Merge writes records into the table. Each record updates the first
// unmatched row with the same map unit label, else the same name, else the
// same leading description text; a row is matched at most once. Records
// with no match are inserted. Rows no record matches are left untouched.
// The whole merge is one transaction.
func (db *DB) Merge(ctx context.Context, records []dmu.Record, source string) (MergeResult, error) {
	var res MergeResult

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	cands, err := loadCandidates(ctx, tx)
	if err != nil {
		return res, err
	}

	update, err := tx.PrepareContext(ctx, `
		UPDATE description_of_map_units SET
			map_unit        = ?,
			name            = ?,
			age             = ?,
			description     = ?,
			hierarchy_key   = ?,
			paragraph_style = ?,
			source          = ?,
			updated_at      = ?
		WHERE id = ?
	`)
	if err != nil {
		return res, fmt.Errorf("store: prepare update: %w", err)
	}
	defer update.Close()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO description_of_map_units
			(map_unit, name, age, description, hierarchy_key, paragraph_style, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return res, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer insert.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if c := findMatch(cands, r); c != nil {
			c.matched = true
			if _, err := update.ExecContext(ctx, r.Label, r.Name, r.Age, r.Description,
				r.Key, r.Style, source, now, c.id); err != nil {
				return MergeResult{}, fmt.Errorf("store: update row %d: %w", c.id, err)
			}
			res.Updated++
			continue
		}
		if _, err := insert.ExecContext(ctx, r.Label, r.Name, r.Age, r.Description,
			r.Key, r.Style, source, now); err != nil {
			return MergeResult{}, fmt.Errorf("store: insert %q: %w", dmu.Heading(r), err)
		}
		res.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return MergeResult{}, fmt.Errorf("store: commit: %w", err)
	}
	return res, nil
}

func loadCandidates(ctx context.Context, tx *sql.Tx) ([]*candidate, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, map_unit, name, description FROM description_of_map_units ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: load rows: %w", err)
	}
	defer rows.Close()

	var out []*candidate
	for rows.Next() {
		c := &candidate{}
		if err := rows.Scan(&c.id, &c.mapUnit, &c.name, &c.description); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func findMatch(cands []*candidate, r dmu.Record) *candidate {
	rules := []func(c *candidate) bool{
		func(c *candidate) bool { return r.Label != "" && c.mapUnit == r.Label },
		func(c *candidate) bool { return r.Name != "" && c.name == r.Name },
		func(c *candidate) bool {
			p := descriptionPrefix(r.Description)
			return p != "" && descriptionPrefix(c.description) == p
		},
	}
	for _, rule := range rules {
		for _, c := range cands {
			if !c.matched && rule(c) {
				return c
			}
		}
	}
	return nil
}

func descriptionPrefix(s string) string {
	runes := []rune(s)
	if len(runes) > descriptionPrefixLen {
		runes = runes[:descriptionPrefixLen]
	}
	return string(runes)
}
