package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/triumph-js/internal/walker"
)

// ResourceStore is the SQLite resource sink. It implements walker.Sink.
type ResourceStore struct {
	runner   Runner
	inserted int
	ignored  int
}

var _ walker.Sink = (*ResourceStore)(nil)

// NewResourceStore creates a ResourceStore. Pass a *sql.Tx to scope a file's
// resources to one transaction.
func NewResourceStore(runner Runner) *ResourceStore {
	return &ResourceStore{runner: runner}
}

// Insert stores a resource. A resource whose (file item, source, key) already
// exists is ignored, so the first one discovered in a file wins.
func (s *ResourceStore) Insert(resource walker.Resource) error {
	result, err := sq.Insert("resources").
		Columns(
			"file_item_id", "source_id", "key", "identifier",
			"signature", "comment", "line_number", "column_position",
		).
		Values(
			resource.FileItemID,
			resource.SourceID,
			resource.Key,
			resource.Identifier,
			resource.Signature,
			resource.Comment,
			resource.LineNumber,
			resource.ColumnPosition,
		).
		Options("OR IGNORE").
		RunWith(s.runner).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert resource %s: %w", resource.Key, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.ignored++
		return nil
	}
	s.inserted++
	return nil
}

// Inserted returns how many resources were stored by this store.
func (s *ResourceStore) Inserted() int { return s.inserted }

// Ignored returns how many duplicate resources were dropped.
func (s *ResourceStore) Ignored() int { return s.ignored }

// DeleteByFileItem removes every resource of a file item and returns how many
// rows were deleted.
func (s *ResourceStore) DeleteByFileItem(fileItemID int64) (int64, error) {
	result, err := sq.Delete("resources").
		Where(sq.Eq{"file_item_id": fileItemID}).
		RunWith(s.runner).
		Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete resources of file item %d: %w", fileItemID, err)
	}
	return result.RowsAffected()
}
