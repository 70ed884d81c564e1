package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"briefcraft/internal/brief"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps briefs as JSON documents in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS briefs (
			id         TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Get loads a brief by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*brief.Brief, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM briefs WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}

	var b brief.Brief
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return nil, fmt.Errorf("decode brief %s: %w", id, err)
	}
	return &b, nil
}

// Put stores or replaces a brief.
func (s *SQLiteStore) Put(ctx context.Context, b *brief.Brief) error {
	if b.ID == "" {
		return fmt.Errorf("brief has no id")
	}
	b.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO briefs (id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		b.ID, string(doc), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put brief: %w", err)
	}
	return nil
}

// Delete removes a brief.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM briefs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete brief: %w", err)
	}
	return nil
}

// List returns all stored brief ids, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM briefs ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
