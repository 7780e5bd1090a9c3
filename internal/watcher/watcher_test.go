package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for SourceWatcher:
// - New fails for a missing root directory
// - A changed source file fires the callback after the debounce period
// - Rapid changes to several files are batched into one sorted callback
// - Files rejected by the filter never fire
// - Directories created after start are watched
// - Ignored directories are not watched
// - Stop is idempotent, also without Start

// suffixFilter matches .js files and ignores directories named "skip".
type suffixFilter struct{}

func (suffixFilter) Matches(relPath string) bool {
	return strings.HasSuffix(relPath, ".js") && !strings.HasPrefix(relPath, "skip/")
}
func (suffixFilter) IgnoresDir(relPath string) bool { return relPath == "skip" }

const testDebounce = 50 * time.Millisecond

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	fired   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 10)}
}

func (r *recorder) callback(files []string) {
	r.mu.Lock()
	r.batches = append(r.batches, files)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not fired")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func (r *recorder) assertQuiet(t *testing.T) {
	t.Helper()
	select {
	case <-r.fired:
		t.Fatal("callback fired unexpectedly")
	case <-time.After(4 * testDebounce):
	}
}

func startWatcher(t *testing.T, dir string) *recorder {
	t.Helper()
	sw, err := New(dir, suffixFilter{}, testDebounce)
	require.NoError(t, err)
	t.Cleanup(func() { sw.Stop() })

	rec := newRecorder()
	sw.Start(context.Background(), rec.callback)
	return rec
}

func TestNew_InvalidDirectory(t *testing.T) {
	t.Parallel()

	sw, err := New(filepath.Join(t.TempDir(), "nonexistent"), suffixFilter{}, 0)
	assert.Error(t, err)
	assert.Nil(t, sw)
}

func TestSourceWatcher_BatchesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := startWatcher(t, dir)

	b := filepath.Join(dir, "b.js")
	a := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(b, []byte("function b() {}"), 0644))
	require.NoError(t, os.WriteFile(a, []byte("function a() {}"), 0644))
	require.NoError(t, os.WriteFile(a, []byte("function a2() {}"), 0644))

	assert.Equal(t, []string{a, b}, rec.wait(t))
}

func TestSourceWatcher_FilterRejects(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	rec.assertQuiet(t)
}

func TestSourceWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := startWatcher(t, dir)

	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher time to add the new directory
	time.Sleep(2 * testDebounce)

	file := filepath.Join(sub, "util.js")
	require.NoError(t, os.WriteFile(file, []byte("function util() {}"), 0644))

	assert.Contains(t, rec.wait(t), file)
}

func TestSourceWatcher_IgnoredDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skip"), 0755))
	rec := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip", "x.js"), []byte("x"), 0644))
	rec.assertQuiet(t)
}

func TestSourceWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	sw, err := New(t.TempDir(), suffixFilter{}, testDebounce)
	require.NoError(t, err)
	require.NoError(t, sw.Stop())
	assert.NoError(t, sw.Stop())

	started, err := New(t.TempDir(), suffixFilter{}, testDebounce)
	require.NoError(t, err)
	started.Start(context.Background(), nil)
	require.NoError(t, started.Stop())
	assert.NoError(t, started.Stop())
}
