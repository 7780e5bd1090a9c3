package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to index_metadata when the schema is created.
const SchemaVersion = "1.0"

// CreateSchema creates all tables and indexes of the resource index.
// Uses a transaction for atomicity - all schema creation succeeds or fails together.
// Every statement is IF NOT EXISTS, so calling it on an existing index is a no-op.
//
// Schema includes:
//   - sources, file_items and resources (the editor's resource index)
//   - index_runs (one row per index invocation)
//   - index_metadata (schema version bookkeeping)
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Enable foreign keys (must be set for each connection)
	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"sources", createSourcesTable},
		{"file_items", createFileItemsTable},
		{"resources", createResourcesTable},
		{"index_runs", createIndexRunsTable},
		{"index_metadata", createIndexMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT OR IGNORE INTO index_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?)
	`
	if _, err := tx.Exec(bootstrapSQL, SchemaVersion, now); err != nil {
		return fmt.Errorf("failed to bootstrap index_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion retrieves the schema version from index_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='index_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check index_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	err = db.QueryRow("SELECT value FROM index_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in index_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

// The sources/file_items/resources layout matches the index format the editor
// reads, so column names must not change.

const createSourcesTable = `
CREATE TABLE IF NOT EXISTS sources (
    source_id INTEGER PRIMARY KEY AUTOINCREMENT,
    directory TEXT NOT NULL UNIQUE               -- Case-sensitive indexed root
)
`

const createFileItemsTable = `
CREATE TABLE IF NOT EXISTS file_items (
    file_item_id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id INTEGER NOT NULL,
    full_path TEXT NOT NULL,
    name TEXT NOT NULL,                          -- Base name of full_path
    last_modified TEXT NOT NULL,                 -- ISO 8601 mtime from filesystem
    is_parsed INTEGER NOT NULL DEFAULT 0,        -- Boolean: resources were extracted
    is_new INTEGER NOT NULL DEFAULT 0,           -- Boolean: unsaved editor buffer, always 0 here
    FOREIGN KEY (source_id) REFERENCES sources(source_id) ON DELETE CASCADE,
    UNIQUE (source_id, full_path)
)
`

const createResourcesTable = `
CREATE TABLE IF NOT EXISTS resources (
    resource_id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_item_id INTEGER NOT NULL,
    source_id INTEGER NOT NULL,
    key TEXT NOT NULL,                           -- "name" or "object.name"
    identifier TEXT NOT NULL,                    -- Bare function name
    signature TEXT NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    line_number INTEGER NOT NULL,                -- 1-based
    column_position INTEGER NOT NULL,            -- 0-based, in characters
    FOREIGN KEY (file_item_id) REFERENCES file_items(file_item_id) ON DELETE CASCADE,
    FOREIGN KEY (source_id) REFERENCES sources(source_id) ON DELETE CASCADE,
    UNIQUE (file_item_id, source_id, key)
)
`

const createIndexRunsTable = `
CREATE TABLE IF NOT EXISTS index_runs (
    run_id TEXT PRIMARY KEY,                     -- UUID
    source_id INTEGER NOT NULL,
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT,                            -- NULL while running
    files_indexed INTEGER NOT NULL DEFAULT 0,
    files_failed INTEGER NOT NULL DEFAULT 0,
    resources_found INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (source_id) REFERENCES sources(source_id) ON DELETE CASCADE
)
`

const createIndexMetadataTable = `
CREATE TABLE IF NOT EXISTS index_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

// getAllIndexes returns the secondary indexes used by lookups.
func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_file_items_full_path ON file_items(full_path)",
		"CREATE INDEX IF NOT EXISTS idx_resources_key ON resources(key)",
		"CREATE INDEX IF NOT EXISTS idx_resources_identifier ON resources(identifier)",
		"CREATE INDEX IF NOT EXISTS idx_resources_file_item ON resources(file_item_id)",
		"CREATE INDEX IF NOT EXISTS idx_index_runs_started ON index_runs(started_at)",
	}
}
