package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the index database at dbPath.
//
// In read-write mode the file is created when missing and the schema is created
// when the database is new. In read-only mode the file must already exist.
// Writers hold a single connection: the indexer persists serially and SQLite
// allows only one writer at a time anyway.
func Open(dbPath string, readOnly bool) (*sql.DB, error) {
	if readOnly {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("index not found at %s, run 'triumph-js index' first", dbPath)
		}
	}

	mode := ""
	if readOnly {
		mode = "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dbPath+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if !readOnly {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}

	if version == "0" {
		if readOnly {
			db.Close()
			return nil, fmt.Errorf("%s is not a triumph-js index", dbPath)
		}
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}
