package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// FileItemStore reads and writes the file_items table.
type FileItemStore struct {
	runner Runner
}

// NewFileItemStore creates a FileItemStore. The runner may be a *sql.DB or a *sql.Tx.
func NewFileItemStore(runner Runner) *FileItemStore {
	return &FileItemStore{runner: runner}
}

// FetchOrInsert looks up the file item by (SourceID, FullPath). An existing row is
// updated with the metadata of item; otherwise a new row is inserted. The returned
// copy carries the row's ID.
func (s *FileItemStore) FetchOrInsert(item *FileItem) (*FileItem, error) {
	existing, err := s.Get(item.SourceID, item.FullPath)
	if err != nil {
		return nil, err
	}

	saved := *item
	lastModified := item.LastModified.UTC().Format(time.RFC3339)

	if existing != nil {
		_, err := sq.Update("file_items").
			Set("name", item.Name).
			Set("last_modified", lastModified).
			Set("is_parsed", item.IsParsed).
			Set("is_new", item.IsNew).
			Where(sq.Eq{"file_item_id": existing.ID}).
			RunWith(s.runner).
			Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to update file item %s: %w", item.FullPath, err)
		}
		saved.ID = existing.ID
		return &saved, nil
	}

	result, err := sq.Insert("file_items").
		Columns("source_id", "full_path", "name", "last_modified", "is_parsed", "is_new").
		Values(item.SourceID, item.FullPath, item.Name, lastModified, item.IsParsed, item.IsNew).
		RunWith(s.runner).
		Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to insert file item %s: %w", item.FullPath, err)
	}

	saved.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read file item id for %s: %w", item.FullPath, err)
	}
	return &saved, nil
}

// DeleteMissing removes every file item of a source whose path is not in keep,
// together with its resources, and returns the removed paths.
func (s *FileItemStore) DeleteMissing(sourceID int64, keep []string) ([]string, error) {
	items, err := s.ListBySource(sourceID)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]bool, len(keep))
	for _, path := range keep {
		kept[path] = true
	}

	var removed []string
	for _, item := range items {
		if kept[item.FullPath] {
			continue
		}
		// Resources are deleted explicitly so that a connection without
		// foreign keys enabled leaves no orphans.
		if _, err := NewResourceStore(s.runner).DeleteByFileItem(item.ID); err != nil {
			return nil, err
		}
		_, err := sq.Delete("file_items").
			Where(sq.Eq{"file_item_id": item.ID}).
			RunWith(s.runner).
			Exec()
		if err != nil {
			return nil, fmt.Errorf("failed to delete file item %s: %w", item.FullPath, err)
		}
		removed = append(removed, item.FullPath)
	}
	return removed, nil
}

// Get returns the file item for (sourceID, fullPath).
// Returns (nil, nil) if not found.
func (s *FileItemStore) Get(sourceID int64, fullPath string) (*FileItem, error) {
	row := sq.Select(fileItemColumns...).
		From("file_items").
		Where(sq.Eq{"source_id": sourceID, "full_path": fullPath}).
		RunWith(s.runner).
		QueryRow()

	item, err := scanFileItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file item %s: %w", fullPath, err)
	}
	return item, nil
}

// ListBySource returns every file item of a source ordered by path.
func (s *FileItemStore) ListBySource(sourceID int64) ([]*FileItem, error) {
	rows, err := sq.Select(fileItemColumns...).
		From("file_items").
		Where(sq.Eq{"source_id": sourceID}).
		OrderBy("full_path").
		RunWith(s.runner).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query file items: %w", err)
	}
	defer rows.Close()

	var items []*FileItem
	for rows.Next() {
		item, err := scanFileItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var fileItemColumns = []string{
	"file_item_id", "source_id", "full_path", "name", "last_modified", "is_parsed", "is_new",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFileItem(row scanner) (*FileItem, error) {
	item := &FileItem{}
	var lastModified string
	err := row.Scan(
		&item.ID,
		&item.SourceID,
		&item.FullPath,
		&item.Name,
		&lastModified,
		&item.IsParsed,
		&item.IsNew,
	)
	if err != nil {
		return nil, err
	}
	item.LastModified, _ = time.Parse(time.RFC3339, lastModified)
	return item, nil
}
