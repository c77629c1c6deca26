package snapshotcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"news-pulse/models"
)

// SQLiteStore keeps one JSON-encoded snapshot row per key in a local file.
// A single connection serializes access.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS feed_snapshots (
			key        TEXT PRIMARY KEY,
			origin     TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			payload    TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put replaces the row for key in one statement.
func (s *SQLiteStore) Put(ctx context.Context, key string, snap models.FeedSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feed_snapshots (key, origin, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			origin = excluded.origin,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, key, string(snap.Origin), snap.CreatedAt.UTC(), string(payload))
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (models.FeedSnapshot, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM feed_snapshots WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FeedSnapshot{}, false, nil
	}
	if err != nil {
		return models.FeedSnapshot{}, false, fmt.Errorf("querying snapshot: %w", err)
	}
	var snap models.FeedSnapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return models.FeedSnapshot{}, false, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, true, nil
}
