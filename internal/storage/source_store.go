package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// SourceStore reads and writes the sources table.
type SourceStore struct {
	runner Runner
}

// NewSourceStore creates a SourceStore. The runner may be a *sql.DB or a *sql.Tx.
func NewSourceStore(runner Runner) *SourceStore {
	return &SourceStore{runner: runner}
}

// FetchOrInsert returns the source for directory, creating it when it does not
// exist yet. Directories are compared case-sensitively.
func (s *SourceStore) FetchOrInsert(directory string) (*Source, error) {
	source, err := s.Get(directory)
	if err != nil {
		return nil, err
	}
	if source != nil {
		return source, nil
	}

	result, err := sq.Insert("sources").
		Columns("directory").
		Values(directory).
		RunWith(s.runner).
		Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to insert source %s: %w", directory, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read source id for %s: %w", directory, err)
	}

	return &Source{ID: id, Directory: directory}, nil
}

// Get returns the source for directory.
// Returns (nil, nil) if the directory is not a known source.
func (s *SourceStore) Get(directory string) (*Source, error) {
	source := &Source{}
	err := sq.Select("source_id", "directory").
		From("sources").
		Where(sq.Eq{"directory": directory}).
		RunWith(s.runner).
		QueryRow().
		Scan(&source.ID, &source.Directory)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %s: %w", directory, err)
	}
	return source, nil
}

// List returns every source ordered by directory.
func (s *SourceStore) List() ([]*Source, error) {
	rows, err := sq.Select("source_id", "directory").
		From("sources").
		OrderBy("directory").
		RunWith(s.runner).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		source := &Source{}
		if err := rows.Scan(&source.ID, &source.Directory); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}
