// Package store keeps the Description of Map Units table in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS description_of_map_units (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	map_unit        TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL DEFAULT '',
	age             TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	hierarchy_key   TEXT NOT NULL DEFAULT '',
	paragraph_style TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT '',
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dmu_map_unit ON description_of_map_units(map_unit);
CREATE INDEX IF NOT EXISTS idx_dmu_hierarchy_key ON description_of_map_units(hierarchy_key);

CREATE TABLE IF NOT EXISTS imports (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source       TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	records      INTEGER NOT NULL DEFAULT 0,
	updated      INTEGER NOT NULL DEFAULT 0,
	inserted     INTEGER NOT NULL DEFAULT 0,
	imported_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: row not found")

// Row is one record of the DMU table.
type Row struct {
	ID             int64     `json:"id"`
	MapUnit        string    `json:"map_unit"`
	Name           string    `json:"name"`
	Age            string    `json:"age"`
	Description    string    `json:"description"`
	HierarchyKey   string    `json:"hierarchy_key"`
	ParagraphStyle string    `json:"paragraph_style"`
	Source         string    `json:"source"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DB wraps a sql.DB holding the DMU table.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const selectColumns = `id, map_unit, name, age, description, hierarchy_key, paragraph_style, source, updated_at`

func scanRow(sc interface{ Scan(...any) error }) (Row, error) {
	var r Row
	err := sc.Scan(&r.ID, &r.MapUnit, &r.Name, &r.Age, &r.Description,
		&r.HierarchyKey, &r.ParagraphStyle, &r.Source, &r.UpdatedAt)
	return r, err
}

// List returns every row ordered by hierarchy key.
func (db *DB) List(ctx context.Context) ([]Row, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM description_of_map_units ORDER BY hierarchy_key, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns the row with the given id.
func (db *DB) Get(ctx context.Context, id int64) (*Row, error) {
	r, err := scanRow(db.conn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM description_of_map_units WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %d: %w", id, err)
	}
	return &r, nil
}

// Count returns the number of rows.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM description_of_map_units`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Delete removes the row with the given id.
func (db *DB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM description_of_map_units WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsRetryable reports whether err is a transient SQLite lock conflict.
func IsRetryable(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// Record converts the row back to a keyed record. Kind and Index are not
// stored and stay empty.
func (r Row) Record() dmu.Record {
	return dmu.Record{
		Label:       r.MapUnit,
		Name:        r.Name,
		Age:         r.Age,
		Description: r.Description,
		Style:       r.ParagraphStyle,
		Key:         r.HierarchyKey,
	}
}
