// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps the last applied chat fragment per page.
//
// Snapshots let chatwatch draw a conversation immediately on start, before
// the first refresh cycle has fetched the page. Only the fragment's inner
// HTML is kept; the server remains the source of truth and every applied
// refresh overwrites the snapshot.
//
// # Key Types
//
//   - SnapshotStore: SQLite-backed store (modernc.org/sqlite, pure Go)
//   - Snapshot: page URL, fragment HTML and fetch time
//
// # Usage
//
//	store, err := storage.OpenSnapshots(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	snap, err := store.Load(ctx, pageURL)
//	if errors.Is(err, storage.ErrNoSnapshot) {
//	    // nothing cached yet
//	}
//
// # Storage Location
//
// The database lives at ~/.chatwatch/snapshots.db unless configured.
package storage
