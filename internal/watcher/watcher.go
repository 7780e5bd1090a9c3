// Package watcher reports debounced changes of source files below a directory.
package watcher

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before changes are reported.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides which paths are watched. Paths are slash-separated and
// relative to the watched root. *indexer.FileDiscovery satisfies it.
type Filter interface {
	Matches(relPath string) bool
	IgnoresDir(relPath string) bool
}

// SourceWatcher watches a directory tree and calls back with batches of
// changed source files.
type SourceWatcher struct {
	watcher      *fsnotify.Watcher
	rootDir      string
	filter       Filter
	debounceTime time.Duration

	accumulated   map[string]bool // Accumulated file changes
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex

	stopOnce sync.Once
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// New creates a watcher for every directory below rootDir that filter does not ignore.
func New(rootDir string, filter Filter, debounce time.Duration) (*SourceWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	sw := &SourceWatcher{
		watcher:      watcher,
		rootDir:      rootDir,
		filter:       filter,
		debounceTime: debounce,
		accumulated:  make(map[string]bool),
		doneCh:       make(chan struct{}),
	}

	if err := sw.addDirectoriesRecursively(rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return sw, nil
}

// Start begins watching. callback receives the sorted absolute paths that
// changed during one debounce window, and runs on the watcher's goroutine.
func (sw *SourceWatcher) Start(ctx context.Context, callback func(files []string)) {
	ctx, sw.cancel = context.WithCancel(ctx)
	go sw.watch(ctx, callback)
}

// Stop stops the watcher. It is safe to call more than once.
func (sw *SourceWatcher) Stop() error {
	var err error
	sw.stopOnce.Do(func() {
		if sw.cancel != nil {
			sw.cancel()
			<-sw.doneCh
		}
		err = sw.watcher.Close()
	})
	return err
}

// watch is the main event loop.
func (sw *SourceWatcher) watch(ctx context.Context, callback func(files []string)) {
	defer close(sw.doneCh)

	fireCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			sw.stopDebounceTimer()
			return

		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}

			// New directories are watched as they appear
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := sw.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !sw.shouldProcessEvent(event) {
				continue
			}

			sw.accumulatedMu.Lock()
			sw.accumulated[event.Name] = true
			sw.accumulatedMu.Unlock()

			sw.resetDebounceTimer(fireCh)

		case <-fireCh:
			if files := sw.drain(); len(files) > 0 && callback != nil {
				callback(files)
			}

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (sw *SourceWatcher) drain() []string {
	sw.accumulatedMu.Lock()
	defer sw.accumulatedMu.Unlock()

	files := make([]string, 0, len(sw.accumulated))
	for file := range sw.accumulated {
		files = append(files, file)
	}
	sw.accumulated = make(map[string]bool)

	sort.Strings(files)
	return files
}

// resetDebounceTimer restarts the quiet period.
func (sw *SourceWatcher) resetDebounceTimer(fireCh chan struct{}) {
	sw.timerMu.Lock()
	defer sw.timerMu.Unlock()

	if sw.debounceTimer != nil {
		sw.debounceTimer.Stop()
	}
	sw.debounceTimer = time.AfterFunc(sw.debounceTime, func() {
		select {
		case fireCh <- struct{}{}:
		default:
		}
	})
}

func (sw *SourceWatcher) stopDebounceTimer() {
	sw.timerMu.Lock()
	defer sw.timerMu.Unlock()

	if sw.debounceTimer != nil {
		sw.debounceTimer.Stop()
		sw.debounceTimer = nil
	}
}

// shouldProcessEvent keeps writes, creations, removals and renames of matching files.
func (sw *SourceWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	rel, err := filepath.Rel(sw.rootDir, event.Name)
	if err != nil {
		return false
	}
	return sw.filter.Matches(filepath.ToSlash(rel))
}

// addDirectoriesRecursively adds every directory of the tree that is not ignored.
func (sw *SourceWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If it's the root path, fail immediately
			if path == rootPath {
				return err
			}
			log.Printf("Warning: error accessing %s: %v", path, err)
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if rel, err := filepath.Rel(sw.rootDir, path); err == nil && rel != "." {
			if sw.filter.IgnoresDir(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}

		if err := sw.watcher.Add(path); err != nil {
			log.Printf("Warning: failed to watch directory %s: %v", path, err)
		}
		return nil
	})
}
