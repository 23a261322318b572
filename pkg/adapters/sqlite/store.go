package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/pagebuilder/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	document_id TEXT PRIMARY KEY,
	raw         TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);`

// Store implements ports.SnapshotStore on an embedded SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates (if needed) and opens the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save upserts the snapshot for documentID.
func (s *Store) Save(ctx context.Context, documentID string, raw string) error {
	if documentID == "" {
		return fmt.Errorf("documentID cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (document_id, raw, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET raw = excluded.raw, updated_at = excluded.updated_at`,
		documentID, raw, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the raw snapshot, or domain.ErrDocumentNotFound.
func (s *Store) Load(ctx context.Context, documentID string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT raw FROM snapshots WHERE document_id = ?`, documentID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", domain.ErrDocumentNotFound
	case err != nil:
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	return raw, nil
}

// Delete removes the snapshot. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// List returns document ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id FROM snapshots ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
