package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/triumph-js/internal/estree"
	"github.com/mvp-joe/triumph-js/internal/storage"
	"github.com/mvp-joe/triumph-js/internal/walker"
)

// ErrStorage marks failures of the index database itself. They abort a run,
// unlike per-file parse or sink failures.
var ErrStorage = errors.New("storage failure")

// DefaultIncludePatterns selects JavaScript sources.
var DefaultIncludePatterns = []string{"**/*.js"}

// DefaultIgnorePatterns skips dependency and VCS directories.
var DefaultIgnorePatterns = []string{"node_modules/**", ".git/**"}

// Parser turns a source file into its syntax tree and comments.
type Parser interface {
	ParseFile(ctx context.Context, path string) (*estree.Program, []estree.Comment, error)
}

// Config contains configuration for the indexer.
type Config struct {
	// Workers is the number of concurrent parsers. Zero means runtime.NumCPU().
	Workers int

	// Glob patterns over slash-separated paths relative to the indexed directory
	IncludePatterns []string
	IgnorePatterns  []string
}

// Stats summarizes one run.
type Stats struct {
	FilesDiscovered   int           `json:"files_discovered"`
	FilesIndexed      int           `json:"files_indexed"`
	FilesFailed       int           `json:"files_failed"`
	ResourcesFound    int           `json:"resources_found"`
	DuplicatesIgnored int           `json:"duplicates_ignored"`
	FilesRemoved      int           `json:"files_removed"`
	Duration          time.Duration `json:"duration"`
	RunID             string        `json:"run_id"`
}

// Indexer walks JavaScript files and persists their resources.
// The database is owned by the caller.
type Indexer struct {
	db       *sql.DB
	parser   Parser
	config   Config
	progress ProgressReporter
}

// New creates an indexer writing into db.
// progress may be nil, in which case nothing is reported.
func New(db *sql.DB, parser Parser, config Config, progress ProgressReporter) (*Indexer, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if parser == nil {
		return nil, fmt.Errorf("parser is required")
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.IncludePatterns == nil {
		config.IncludePatterns = DefaultIncludePatterns
	}
	if config.IgnorePatterns == nil {
		config.IgnorePatterns = DefaultIgnorePatterns
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	return &Indexer{
		db:       db,
		parser:   parser,
		config:   config,
		progress: progress,
	}, nil
}

// IndexDir indexes every matching file below dir. The directory becomes the
// source of all its files.
func (idx *Indexer) IndexDir(ctx context.Context, dir string) (*Stats, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	discovery, err := NewFileDiscovery(dir, idx.config.IncludePatterns, idx.config.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	idx.progress.OnDiscoveryStart()
	phaseStart := time.Now()
	files, err := discovery.DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	log.Printf("[TIMING] Discovery: %v (%d files)\n", time.Since(phaseStart), len(files))
	idx.progress.OnDiscoveryComplete(len(files))

	return idx.run(ctx, dir, files, true)
}

// IndexFile indexes a single file. Its parent directory becomes the source.
// Include and ignore patterns do not apply.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (*Stats, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	idx.progress.OnDiscoveryStart()
	idx.progress.OnDiscoveryComplete(1)

	return idx.run(ctx, filepath.Dir(path), []string{path}, false)
}

// run indexes files into the source for directory. With purge set, file items
// of the source that are not in files are removed once every file is persisted.
func (idx *Indexer) run(ctx context.Context, directory string, files []string, purge bool) (*Stats, error) {
	start := time.Now()
	stats := &Stats{FilesDiscovered: len(files)}

	source, err := storage.NewSourceStore(idx.db).FetchOrInsert(directory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	runs := storage.NewRunStore(idx.db)
	indexRun, err := runs.Begin(source.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	stats.RunID = indexRun.ID

	idx.progress.OnFileProcessingStart(len(files))
	phaseStart := time.Now()
	processErr := idx.processFiles(ctx, source, files, stats)
	log.Printf("[TIMING] Process files: %v (%d files -> %d resources)\n",
		time.Since(phaseStart), stats.FilesIndexed, stats.ResourcesFound)

	if purge && processErr == nil {
		processErr = idx.removeMissing(source, files, stats)
	}

	// The run row is closed even for canceled runs so that partial work is visible.
	indexRun.FilesIndexed = stats.FilesIndexed
	indexRun.FilesFailed = stats.FilesFailed
	indexRun.ResourcesFound = stats.ResourcesFound
	if err := runs.Finish(indexRun); err != nil && processErr == nil {
		processErr = fmt.Errorf("%w: %w", ErrStorage, err)
	}

	stats.Duration = time.Since(start)
	if processErr != nil {
		return stats, processErr
	}

	log.Printf("[TIMING] ===== TOTAL INDEX TIME: %v =====\n", stats.Duration)
	idx.progress.OnComplete(stats)
	return stats, nil
}

// removeMissing deletes the file items (and resources) of files that are no
// longer discovered below the source.
func (idx *Indexer) removeMissing(source *storage.Source, files []string, stats *Stats) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	removed, err := storage.NewFileItemStore(tx).DeleteMissing(source.ID, files)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit removals: %w", ErrStorage, err)
	}

	for _, path := range removed {
		log.Printf("Removed %s from the index\n", path)
	}
	stats.FilesRemoved = len(removed)
	return nil
}

// parsedFile is the result of one worker's parse.
type parsedFile struct {
	path     string
	modTime  time.Time
	program  *estree.Program
	comments []estree.Comment
	err      error
}

// processFiles parses files on a worker pool and persists them from the
// calling goroutine, one transaction per file.
func (idx *Indexer) processFiles(ctx context.Context, source *storage.Source, files []string, stats *Stats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make(chan string)
	results := make(chan parsedFile, idx.config.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(paths)
		for _, path := range files {
			select {
			case paths <- path:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	workers := new(errgroup.Group)
	for i := 0; i < idx.config.Workers; i++ {
		workers.Go(func() error {
			for path := range paths {
				results <- idx.parseFile(gctx, path)
			}
			return nil
		})
	}
	g.Go(func() error {
		err := workers.Wait()
		close(results)
		return err
	})

	// Results are always drained so that workers never block on a stopped writer.
	var fatal error
	for result := range results {
		if fatal != nil || ctx.Err() != nil {
			continue
		}
		if err := idx.persistFile(source, result, stats); err != nil {
			fatal = err
			cancel()
			continue
		}
		idx.progress.OnFileProcessed(filepath.Base(result.path))
	}

	if err := g.Wait(); err != nil && fatal == nil {
		fatal = err
	}
	if fatal != nil {
		return fatal
	}
	return ctx.Err()
}

func (idx *Indexer) parseFile(ctx context.Context, path string) parsedFile {
	result := parsedFile{path: path}

	info, err := os.Stat(path)
	if err != nil {
		result.err = err
		return result
	}
	result.modTime = info.ModTime()
	result.program, result.comments, result.err = idx.parser.ParseFile(ctx, path)
	return result
}

// persistFile stores one parsed file. Parse and sink failures are logged and
// counted; only storage failures are returned.
func (idx *Indexer) persistFile(source *storage.Source, file parsedFile, stats *Stats) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction for %s: %w", ErrStorage, file.path, err)
	}
	defer tx.Rollback()

	item, err := storage.NewFileItemStore(tx).FetchOrInsert(&storage.FileItem{
		SourceID:     source.ID,
		FullPath:     file.path,
		Name:         filepath.Base(file.path),
		LastModified: file.modTime,
		IsParsed:     file.err == nil,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	// Previous resources are replaced even when the file no longer parses
	resources := storage.NewResourceStore(tx)
	if _, err := resources.DeleteByFileItem(item.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if file.err != nil {
		log.Printf("Warning: failed to parse %s: %v\n", file.path, file.err)
		stats.FilesFailed++
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: failed to commit %s: %w", ErrStorage, file.path, err)
		}
		return nil
	}

	w := walker.New(resources, walker.FileContext{FileItemID: item.ID, SourceID: source.ID}, file.comments)
	if err := w.Walk(file.program); err != nil {
		log.Printf("Warning: failed to store resources of %s: %v\n", file.path, err)
		stats.FilesFailed++
		return nil
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit %s: %w", ErrStorage, file.path, err)
	}

	stats.FilesIndexed++
	stats.ResourcesFound += resources.Inserted()
	stats.DuplicatesIgnored += resources.Ignored()
	return nil
}
