package storage

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// DefaultLookupLimit caps lookups that do not specify a limit.
const DefaultLookupLimit = 50

// ResourceReader queries stored resources for lookups.
type ResourceReader struct {
	runner Runner
}

// NewResourceReader creates a ResourceReader.
func NewResourceReader(runner Runner) *ResourceReader {
	return &ResourceReader{runner: runner}
}

// FindByKeyPrefix returns resources whose key starts with prefix, ordered by key.
// Matching is case-insensitive for ASCII, which suits completion.
func (r *ResourceReader) FindByKeyPrefix(prefix string, limit int) ([]*StoredResource, error) {
	query := r.selectResources().
		Where(sq.Expr(`r.key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")).
		OrderBy("r.key", "f.full_path", "r.line_number").
		Limit(lookupLimit(limit))

	resources, err := r.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources with prefix %q: %w", prefix, err)
	}
	return resources, nil
}

// FindByIdentifier returns resources whose bare name equals identifier.
func (r *ResourceReader) FindByIdentifier(identifier string, limit int) ([]*StoredResource, error) {
	query := r.selectResources().
		Where(sq.Eq{"r.identifier": identifier}).
		OrderBy("r.key", "f.full_path", "r.line_number").
		Limit(lookupLimit(limit))

	resources, err := r.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources named %q: %w", identifier, err)
	}
	return resources, nil
}

// ListByFile returns every resource of a file in source order.
func (r *ResourceReader) ListByFile(fullPath string) ([]*StoredResource, error) {
	query := r.selectResources().
		Where(sq.Eq{"f.full_path": fullPath}).
		OrderBy("r.line_number", "r.column_position")

	resources, err := r.query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources of %s: %w", fullPath, err)
	}
	return resources, nil
}

// Count returns the number of stored resources.
func (r *ResourceReader) Count() (int, error) {
	var count int
	err := sq.Select("COUNT(*)").
		From("resources").
		RunWith(r.runner).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

func (r *ResourceReader) selectResources() sq.SelectBuilder {
	return sq.Select(
		"r.resource_id", "r.file_item_id", "r.source_id", "r.key", "r.identifier",
		"r.signature", "r.comment", "r.line_number", "r.column_position", "f.full_path",
	).
		From("resources r").
		Join("file_items f ON f.file_item_id = r.file_item_id")
}

func (r *ResourceReader) query(query sq.SelectBuilder) ([]*StoredResource, error) {
	rows, err := query.RunWith(r.runner).Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*StoredResource
	for rows.Next() {
		res := &StoredResource{}
		err := rows.Scan(
			&res.ID,
			&res.FileItemID,
			&res.SourceID,
			&res.Key,
			&res.Identifier,
			&res.Signature,
			&res.Comment,
			&res.LineNumber,
			&res.ColumnPosition,
			&res.FullPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func lookupLimit(limit int) uint64 {
	if limit <= 0 {
		return DefaultLookupLimit
	}
	return uint64(limit)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
