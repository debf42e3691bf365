// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SchemaVersion tracks the snapshot schema for migrations.
const SchemaVersion = 1

// Schema creates the snapshot tables.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per page URL; every applied refresh replaces it.
CREATE TABLE IF NOT EXISTS snapshots (
    url TEXT PRIMARY KEY,
    html TEXT NOT NULL,
    fetched_at INTEGER NOT NULL -- Unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_snapshots_fetched_at ON snapshots(fetched_at);
`

// initMetadata records the schema version once.
const initMetadata = `INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');`
