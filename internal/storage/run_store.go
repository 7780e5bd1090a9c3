package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// RunStore records index runs.
type RunStore struct {
	runner Runner
}

// NewRunStore creates a RunStore.
func NewRunStore(runner Runner) *RunStore {
	return &RunStore{runner: runner}
}

// Begin inserts a new run for sourceID and returns it.
func (s *RunStore) Begin(sourceID int64) (*IndexRun, error) {
	run := &IndexRun{
		ID:        uuid.New().String(),
		SourceID:  sourceID,
		StartedAt: time.Now().UTC(),
	}

	_, err := sq.Insert("index_runs").
		Columns("run_id", "source_id", "started_at").
		Values(run.ID, run.SourceID, run.StartedAt.Format(time.RFC3339Nano)).
		RunWith(s.runner).
		Exec()
	if err != nil {
		return nil, fmt.Errorf("failed to begin index run: %w", err)
	}
	return run, nil
}

// Finish stamps the run's finish time and stores its counters.
func (s *RunStore) Finish(run *IndexRun) error {
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	_, err := sq.Update("index_runs").
		Set("finished_at", finished.Format(time.RFC3339Nano)).
		Set("files_indexed", run.FilesIndexed).
		Set("files_failed", run.FilesFailed).
		Set("resources_found", run.ResourcesFound).
		Where(sq.Eq{"run_id": run.ID}).
		RunWith(s.runner).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish index run %s: %w", run.ID, err)
	}
	return nil
}

// Latest returns the most recently started run.
// Returns (nil, nil) if no run was recorded yet.
func (s *RunStore) Latest() (*IndexRun, error) {
	run := &IndexRun{}
	var startedAt string
	var finishedAt sql.NullString

	err := sq.Select(
		"run_id", "source_id", "started_at", "finished_at",
		"files_indexed", "files_failed", "resources_found",
	).
		From("index_runs").
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(s.runner).
		QueryRow().
		Scan(
			&run.ID,
			&run.SourceID,
			&startedAt,
			&finishedAt,
			&run.FilesIndexed,
			&run.FilesFailed,
			&run.ResourcesFound,
		)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest index run: %w", err)
	}

	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if finishedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, finishedAt.String)
		run.FinishedAt = &t
	}
	return run, nil
}
