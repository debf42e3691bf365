// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNoSnapshot is returned by Load when a page has no snapshot.
var ErrNoSnapshot = errors.New("no snapshot for page")

// Snapshot is the last applied fragment of one page.
type Snapshot struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// SnapshotStore persists snapshots in SQLite.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// OpenSnapshots opens (creating if needed) the snapshot database at path.
// The path ":memory:" gives a private in-memory store.
func OpenSnapshots(path string) (*SnapshotStore, error) {
	if path == "" {
		return nil, errors.New("snapshot path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// pointing at one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &SnapshotStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Close releases the database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces the snapshot for snap.URL.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.URL == "" {
		return errors.New("snapshot url cannot be empty")
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (url, html, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET html = excluded.html, fetched_at = excluded.fetched_at`,
		snap.URL, snap.HTML, snap.FetchedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for url, or ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context, url string) (Snapshot, error) {
	var (
		snap    = Snapshot{URL: url}
		fetched int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT html, fetched_at FROM snapshots WHERE url = ?`, url,
	).Scan(&snap.HTML, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap.FetchedAt = time.UnixMilli(fetched)
	return snap, nil
}

// Delete removes the snapshot for url. Deleting a missing snapshot is not
// an error.
func (s *SnapshotStore) Delete(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE url = ?`, url); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Prune removes snapshots fetched before cutoff and returns how many.
func (s *SnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return n, nil
}

// List returns every snapshot, newest first, without HTML.
func (s *SnapshotStore) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, fetched_at FROM snapshots ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			fetched int64
		)
		if err := rows.Scan(&snap.URL, &fetched); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snap.FetchedAt = time.UnixMilli(fetched)
		out = append(out, snap)
	}
	return out, rows.Err()
}
