package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Import records one merge into the table.
type Import struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Records     int       `json:"records"`
	Updated     int       `json:"updated"`
	Inserted    int       `json:"inserted"`
	ImportedAt  time.Time `json:"imported_at"`
}

// RecordImport appends to the import history.
func (db *DB) RecordImport(ctx context.Context, im Import) error {
	if im.ImportedAt.IsZero() {
		im.ImportedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO imports (source, title, content_hash, records, updated, inserted, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, im.Source, im.Title, im.ContentHash, im.Records, im.Updated, im.Inserted, im.ImportedAt)
	if err != nil {
		return fmt.Errorf("store: record import: %w", err)
	}
	return nil
}

// LastImport returns the most recent import, or ErrNotFound.
func (db *DB) LastImport(ctx context.Context) (*Import, error) {
	var im Import
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, source, title, content_hash, records, updated, inserted, imported_at
		FROM imports ORDER BY id DESC LIMIT 1
	`).Scan(&im.ID, &im.Source, &im.Title, &im.ContentHash, &im.Records, &im.Updated, &im.Inserted, &im.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: last import: %w", err)
	}
	return &im, nil
}

// ListImports returns up to limit imports, newest first.
func (db *DB) ListImports(ctx context.Context, limit int) ([]Import, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source, title, content_hash, records, updated, inserted, imported_at
		FROM imports ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var im Import
		if err := rows.Scan(&im.ID, &im.Source, &im.Title, &im.ContentHash, &im.Records, &im.Updated, &im.Inserted, &im.ImportedAt); err != nil {
			return nil, fmt.Errorf("store: scan import: %w", err)
		}
		out = append(out, im)
	}
	return out, rows.Err()
}
