package cli

// Test Plan for the CLI commands:
// - validateOutput accepts missing and regular files, rejects directories and special files
// - runIndex indexes a directory and a single file into a fresh SQLite file
// - runIndex takes the output from .triumph/config.yml when no flag is given
// - runIndex rejects missing, conflicting and nonexistent inputs and a missing output
// - runLookup prints matches as a table or JSON and reports empty results
// - runLookup refuses a missing index
// - runDump prints resources as JSON from JavaScript and from ESTree JSON
// - runDump --comments replaces the tree's comments and requires --estree
// - formatNumber adds thousands separators

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/triumph-js/internal/estree"
	"github.com/mvp-joe/triumph-js/internal/indexer"
	"github.com/mvp-joe/triumph-js/internal/storage"
	"github.com/mvp-joe/triumph-js/internal/walker"
)

const sampleSource = `/**
 * Trims whitespace.
 */
function trim(s) {}

var Utils = {
  pad: function (s, width) {}
};
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.NoError(t, validateOutput(filepath.Join(dir, "new.sqlite")))

	existing := writeSource(t, dir, "existing.sqlite", "")
	assert.NoError(t, validateOutput(existing))

	err := validateOutput(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be a directory")

	if runtime.GOOS != "windows" {
		err = validateOutput(os.DevNull)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "special file")
	}
}

func TestRunIndex_Dir(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSource(t, src, "utils.js", sampleSource)
	writeSource(t, src, "lib/app.js", "App.start = function (opts) {};\n")
	output := filepath.Join(t.TempDir(), "index.sqlite")

	stats, err := runIndex(context.Background(), indexOptions{Dir: src, Output: output}, &indexer.NoOpProgressReporter{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 3, stats.ResourcesFound)

	var out bytes.Buffer
	require.NoError(t, runLookup(&out, output, lookupQuery{Prefix: "Utils."}, false))
	assert.Contains(t, out.String(), "Utils.pad")
	assert.Contains(t, out.String(), "function pad(s, width)")
	assert.Contains(t, out.String(), filepath.Join(src, "utils.js")+":7:2")

	// Test: a second run over the same output replaces rather than duplicates
	_, err = runIndex(context.Background(), indexOptions{Dir: src, Output: output}, nil)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, runLookup(&out, output, lookupQuery{Identifier: "start"}, true))
	var found []*storage.StoredResource
	require.NoError(t, json.Unmarshal(out.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "App.start", found[0].Key)
}

func TestRunIndex_File(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	file := writeSource(t, src, "utils.js", sampleSource)
	writeSource(t, src, "other.js", "function other() {}\n")
	output := filepath.Join(t.TempDir(), "index.sqlite")

	stats, err := runIndex(context.Background(), indexOptions{File: file, Output: output}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDiscovered)

	var out bytes.Buffer
	require.NoError(t, runLookup(&out, output, lookupQuery{File: file}, true))
	var found []*storage.StoredResource
	require.NoError(t, json.Unmarshal(out.Bytes(), &found))
	require.Len(t, found, 2)
	assert.Equal(t, "trim", found[0].Key)
	assert.Contains(t, found[0].Comment, "Trims whitespace.")
	assert.Equal(t, "Utils.pad", found[1].Key)
}

func TestRunIndex_OutputFromConfig(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSource(t, src, "a.js", "function a() {}\n")
	output := filepath.Join(t.TempDir(), "configured.sqlite")
	writeSource(t, src, ".triumph/config.yml", "storage:\n  output: "+output+"\n")

	_, err := runIndex(context.Background(), indexOptions{Dir: src}, nil)
	require.NoError(t, err)

	_, err = os.Stat(output)
	assert.NoError(t, err, "output from config should be created")
}

func TestRunIndex_Errors(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	file := writeSource(t, src, "a.js", "function a() {}\n")
	output := filepath.Join(t.TempDir(), "index.sqlite")

	tests := []struct {
		name string
		opts indexOptions
		want string
	}{
		{"no input", indexOptions{Output: output}, "file or dir argument is required"},
		{"both inputs", indexOptions{File: file, Dir: src, Output: output}, "mutually exclusive"},
		{"watch without dir", indexOptions{File: file, Output: output, Watch: true}, "watch requires a dir"},
		{"missing file", indexOptions{File: filepath.Join(src, "missing.js"), Output: output}, "file does not exist"},
		{"file is dir", indexOptions{File: src, Output: output}, "must not be a directory"},
		{"missing dir", indexOptions{Dir: filepath.Join(src, "missing"), Output: output}, "directory does not exist"},
		{"no output", indexOptions{Dir: src}, "output argument is required"},
		{"output is dir", indexOptions{Dir: src, Output: src}, "output file must not be a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := runIndex(context.Background(), tt.opts, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunLookup(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSource(t, src, "utils.js", sampleSource)
	output := filepath.Join(t.TempDir(), "index.sqlite")
	_, err := runIndex(context.Background(), indexOptions{Dir: src, Output: output}, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runLookup(&out, output, lookupQuery{Prefix: "Nope"}, false))
	assert.Equal(t, "No resources found\n", out.String())

	out.Reset()
	require.NoError(t, runLookup(&out, output, lookupQuery{Prefix: "Nope"}, true))
	assert.Equal(t, "[]\n", out.String())

	out.Reset()
	require.NoError(t, runLookup(&out, output, lookupQuery{Identifier: "trim", Limit: 1}, false))
	assert.Contains(t, out.String(), "function trim(s)")

	err = runLookup(&out, filepath.Join(t.TempDir(), "missing.sqlite"), lookupQuery{Prefix: "a"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index not found")

	err = runLookup(&out, output, lookupQuery{}, false)
	assert.Error(t, err)
}

func TestRunDump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeSource(t, dir, "utils.js", sampleSource)

	var out bytes.Buffer
	require.NoError(t, runDump(context.Background(), &out, file, false, ""))

	var resources []walker.Resource
	require.NoError(t, json.Unmarshal(out.Bytes(), &resources))
	require.Len(t, resources, 2)
	assert.Equal(t, "trim", resources[0].Key)
	assert.Equal(t, 4, resources[0].LineNumber)
	assert.Equal(t, 9, resources[0].ColumnPosition)
	assert.Equal(t, "Utils.pad", resources[1].Key)
	assert.Zero(t, resources[1].FileItemID)

	empty := writeSource(t, dir, "empty.js", "var x = 1;\n")
	out.Reset()
	require.NoError(t, runDump(context.Background(), &out, empty, false, ""))
	assert.Equal(t, "[]\n", out.String())
}

func TestRunDump_ESTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tree := writeSource(t, dir, "tree.json", `{
  "type": "Program",
  "body": [{
    "type": "FunctionDeclaration",
    "id": {"type": "Identifier", "name": "hello",
           "loc": {"start": {"line": 3, "column": 9}, "end": {"line": 3, "column": 14}}},
    "params": [{"type": "Identifier", "name": "who"}],
    "body": {"type": "BlockStatement", "body": []},
    "loc": {"start": {"line": 3, "column": 0}, "end": {"line": 3, "column": 25}}
  }],
  "comments": [{"type": "Block", "value": " greets ",
                "loc": {"start": {"line": 2, "column": 0}, "end": {"line": 2, "column": 12}}}]
}`)

	var out bytes.Buffer
	require.NoError(t, runDump(context.Background(), &out, tree, true, ""))

	var resources []walker.Resource
	require.NoError(t, json.Unmarshal(out.Bytes(), &resources))
	require.Len(t, resources, 1)
	assert.Equal(t, "hello", resources[0].Key)
	assert.Equal(t, "function hello(who)", resources[0].Signature)
	assert.Equal(t, " greets ", resources[0].Comment)
	assert.Equal(t, 3, resources[0].LineNumber)

	notTree := writeSource(t, dir, "list.json", `[1, 2]`)
	err := runDump(context.Background(), &out, notTree, true, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, estree.ErrInvalidTree))

	// Test: a separate comment list replaces the attached one
	separate := writeSource(t, dir, "comments.json", `[{"type": "Block", "value": " says hello ",
  "loc": {"start": {"line": 2, "column": 0}, "end": {"line": 2, "column": 16}}}]`)
	out.Reset()
	require.NoError(t, runDump(context.Background(), &out, tree, true, separate))
	resources = nil
	require.NoError(t, json.Unmarshal(out.Bytes(), &resources))
	require.Len(t, resources, 1)
	assert.Equal(t, " says hello ", resources[0].Comment)

	err = runDump(context.Background(), &out, tree, true, notTree+".missing")
	assert.Error(t, err)

	broken := writeSource(t, dir, "broken.json", `{`)
	err = runDump(context.Background(), &out, tree, true, broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, estree.ErrInvalidTree))

	err = runDump(context.Background(), &out, tree, false, separate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --estree")
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-12,000", formatNumber(-12000))
}
