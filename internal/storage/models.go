package storage

import (
	"database/sql"
	"time"

	"github.com/mvp-joe/triumph-js/internal/walker"
)

// Domain models that mirror SQL tables in schema.go.
// These are lightweight data transfer structs, NOT ORM models.

// Runner executes statements. *sql.DB and *sql.Tx both satisfy it, so every
// store can be scoped to a transaction.
type Runner interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Source is an indexed root directory.
// Maps to the sources table.
type Source struct {
	ID        int64  `json:"source_id"` // source_id
	Directory string `json:"directory"` // directory: case-sensitive
}

// FileItem is a file known to the index.
// Maps to the file_items table.
type FileItem struct {
	ID           int64     `json:"file_item_id"`  // file_item_id
	SourceID     int64     `json:"source_id"`     // source_id: FK to sources
	FullPath     string    `json:"full_path"`     // full_path
	Name         string    `json:"name"`          // name: base name
	LastModified time.Time `json:"last_modified"` // last_modified: file mtime
	IsParsed     bool      `json:"is_parsed"`     // is_parsed: resources extracted
	IsNew        bool      `json:"is_new"`        // is_new: always false for files on disk
}

// StoredResource is a resource row joined with the path of its file.
type StoredResource struct {
	walker.Resource
	ID       int64  `json:"resource_id"`
	FullPath string `json:"full_path"`
}

// IndexRun records one invocation of the indexer over a source.
// Maps to the index_runs table.
type IndexRun struct {
	ID             string     `json:"run_id"`      // run_id: UUID
	SourceID       int64      `json:"source_id"`   // source_id: FK to sources
	StartedAt      time.Time  `json:"started_at"`  // started_at
	FinishedAt     *time.Time `json:"finished_at"` // finished_at: nil while running
	FilesIndexed   int        `json:"files_indexed"`
	FilesFailed    int        `json:"files_failed"`
	ResourcesFound int        `json:"resources_found"`
}
