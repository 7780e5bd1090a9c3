package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/triumph-js/internal/config"
	"github.com/mvp-joe/triumph-js/internal/indexer"
	"github.com/mvp-joe/triumph-js/internal/parser"
	"github.com/mvp-joe/triumph-js/internal/storage"
	"github.com/mvp-joe/triumph-js/internal/watcher"
)

var (
	indexFileFlag   string
	indexDirFlag    string
	indexOutputFlag string
	indexWatchFlag  bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index JavaScript functions into a SQLite file",
	Long: `Index parses JavaScript sources and stores every named function and
function-valued property in a SQLite file.

For each function the index records:
  - its key, e.g. "Utils.trim" or "init"
  - its synthesized signature, e.g. "function trim(s)"
  - the block comment directly above it
  - its file, line and column

Examples:
  # Index a directory
  triumph-js index -d ./src -o index.sqlite

  # Index a single file; its directory becomes the source
  triumph-js index -f ./src/app.js -o index.sqlite

  # Take the output from .triumph/config.yml (storage.output)
  triumph-js index -d .

  # Re-index the whole directory whenever a source file changes
  triumph-js index -d ./src -o index.sqlite --watch
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Set up context with cancellation for Ctrl+C
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case <-sigChan:
				fmt.Fprintln(os.Stderr, "\nInterrupted! Cancelling indexing...")
				cancel()
			case <-ctx.Done():
			}
		}()

		_, err := runIndex(ctx, indexOptions{
			File:   indexFileFlag,
			Dir:    indexDirFlag,
			Output: indexOutputFlag,
			Watch:  indexWatchFlag,
		}, NewCLIProgressReporter(quiet))
		return err
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexFileFlag, "file", "f", "", "File to parse")
	indexCmd.Flags().StringVarP(&indexDirFlag, "dir", "d", "", "Directory to parse")
	indexCmd.Flags().StringVarP(&indexOutputFlag, "output", "o", "", "SQLite file to store parsed results in")
	indexCmd.Flags().BoolVarP(&indexWatchFlag, "watch", "w", false, "Watch the directory and re-index it on changes")
	indexCmd.MarkFlagsMutuallyExclusive("file", "dir")
	indexCmd.MarkFlagsMutuallyExclusive("file", "watch")
}

// indexOptions are the inputs of one index invocation.
type indexOptions struct {
	File   string
	Dir    string
	Output string
	Watch  bool
}

func runIndex(ctx context.Context, opts indexOptions, progress indexer.ProgressReporter) (*indexer.Stats, error) {
	if opts.File == "" && opts.Dir == "" {
		return nil, fmt.Errorf("file or dir argument is required, see --help for details")
	}
	if opts.File != "" && opts.Dir != "" {
		return nil, fmt.Errorf("file and dir arguments are mutually exclusive")
	}
	if opts.Watch && opts.Dir == "" {
		return nil, fmt.Errorf("watch requires a dir argument")
	}

	rootDir := opts.Dir
	if opts.File != "" {
		info, err := os.Stat(opts.File)
		if err != nil {
			return nil, fmt.Errorf("file does not exist: %s", opts.File)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("file must not be a directory: %s", opts.File)
		}
		rootDir = filepath.Dir(opts.File)
	} else {
		info, err := os.Stat(opts.Dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("directory does not exist: %s", opts.Dir)
		}
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == "" {
		output = cfg.Storage.Output
	}
	if output == "" {
		return nil, fmt.Errorf("output argument is required, see --help for details")
	}
	if err := validateOutput(output); err != nil {
		return nil, err
	}

	db, err := storage.Open(output, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	idx, err := indexer.New(db, parser.New(cfg.ParserOptions()...), cfg.ToIndexerConfig(), progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	var stats *indexer.Stats
	if opts.File != "" {
		stats, err = idx.IndexFile(ctx, opts.File)
	} else {
		stats, err = idx.IndexDir(ctx, opts.Dir)
	}
	if err != nil {
		if ctx.Err() != nil {
			return stats, fmt.Errorf("indexing cancelled")
		}
		return stats, fmt.Errorf("indexing failed: %w", err)
	}

	if opts.Watch {
		if err := watchAndReindex(ctx, idx, opts.Dir, cfg); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// watchAndReindex re-runs a full index of dir after every batch of source
// changes until ctx is canceled.
func watchAndReindex(ctx context.Context, idx *indexer.Indexer, dir string, cfg *config.Config) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	discovery, err := indexer.NewFileDiscovery(dir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to create file discovery: %w", err)
	}

	sw, err := watcher.New(dir, discovery, watcher.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer sw.Stop()

	log.Printf("Watching %s for changes...\n", dir)
	sw.Start(ctx, func(files []string) {
		log.Printf("%d files changed, re-indexing\n", len(files))
		if _, err := idx.IndexDir(ctx, dir); err != nil && ctx.Err() == nil {
			log.Printf("Warning: re-index failed: %v\n", err)
		}
	})

	<-ctx.Done()
	log.Println("Watch mode stopped")
	return nil
}

// validateOutput rejects outputs that exist as directories or special files.
// A missing output is created by storage.Open.
func validateOutput(output string) error {
	info, err := os.Stat(output)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check output file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("output file must not be a directory: %s", output)
	}
	if info.Mode()&(os.ModeDevice|os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 {
		return fmt.Errorf("output file must not be a special file: %s", output)
	}
	return nil
}
