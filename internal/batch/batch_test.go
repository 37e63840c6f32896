package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/convert"
	"github.com/gerunddev/nbimport/internal/idgen"
	"github.com/gerunddev/nbimport/internal/importer"
	"github.com/gerunddev/nbimport/internal/logger"
	"github.com/gerunddev/nbimport/internal/state"
)

const validNotebook = `{"nbformat": 3, "nbformat_minor": 0, "worksheets": [{"cells": [
	{"cell_type": "markdown", "source": ["# Hi"]},
	{"cell_type": "widget"},
	{"cell_type": "code", "input": ["1"]}
]}]}`

type fixture struct {
	dir     string
	cfg     *config.Config
	st      *state.State
	batcher *Batcher
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.NotebookDir = dir
	cfg.Indent = 0

	st := state.NewState()
	imp := importer.NewIPynb(convert.New(convert.WithIDGenerator(&idgen.Sequential{})), false)

	var logs bytes.Buffer
	b := NewBatcher(cfg, st, imp)
	b.SetLogger(logger.NewWithLevel(&logs, log.DebugLevel))

	return &fixture{dir: dir, cfg: cfg, st: st, batcher: b, logs: &logs}
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunConvertsAndSkipsUnchanged(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.ipynb", validNotebook)
	b := f.write(t, "sub/b.ipynb", validNotebook)
	f.write(t, "broken.ipynb", "{not json")
	f.write(t, "notes.txt", "ignored")
	f.write(t, ".ipynb_checkpoints/a-checkpoint.ipynb", validNotebook)

	var seen []FileResult
	f.batcher.OnFile = func(fr FileResult) {
		seen = append(seen, fr)
	}

	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 0, result.Unchanged)
	assert.Len(t, result.Errors, 1)
	assert.Len(t, seen, 3)
	assert.Contains(t, result.String(), "2 converted")

	for _, src := range []string{a, b} {
		out := f.cfg.OutputPath(src)
		data, err := os.ReadFile(out)
		require.NoError(t, err, "missing output for %s", src)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "2", decoded["beaker"])
		assert.Len(t, decoded["cells"], 2)

		rec := f.st.Records[src]
		require.NotNil(t, rec)
		assert.Equal(t, 2, rec.Cells)
		assert.Equal(t, 1, rec.Skipped)
	}

	_, err = os.Stat(filepath.Join(f.dir, ".ipynb_checkpoints", "a-checkpoint.bkr"))
	assert.True(t, os.IsNotExist(err), "checkpoint notebooks should not be converted")

	again, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Converted)
	assert.Equal(t, 2, again.Unchanged)
	assert.Len(t, again.Errors, 1)

	assert.Contains(t, f.logs.String(), "batch completed")
	assert.Contains(t, f.logs.String(), "import failed")
}

func TestRunForce(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.ipynb", validNotebook)

	_, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)

	f.batcher.Force = true
	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "a.ipynb", validNotebook)
	f.batcher.DryRun = true
	f.batcher.StatePath = filepath.Join(f.dir, "state.json")

	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)

	_, err = os.Stat(f.cfg.OutputPath(src))
	assert.True(t, os.IsNotExist(err), "dry run should not write output")
	_, err = os.Stat(f.batcher.StatePath)
	assert.True(t, os.IsNotExist(err), "dry run should not write state")
	assert.Empty(t, f.st.Records)
}

func TestRunOutputDirAndStateSaved(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "a.ipynb", validNotebook)
	f.cfg.OutputDir = filepath.Join(f.dir, "out")
	f.batcher.StatePath = filepath.Join(f.dir, "state", "state.json")

	_, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(f.dir, "out", "a.bkr"))
	assert.NoError(t, err)

	saved, err := state.Load(f.batcher.StatePath)
	require.NoError(t, err)
	assert.Contains(t, saved.Records, src)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.ipynb", validNotebook)
	f.batcher.StatePath = filepath.Join(f.dir, "state.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.batcher.Run(ctx, f.dir)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Converted)
	assert.FileExists(t, f.batcher.StatePath, "state is saved even when cancelled")
}

func markdownNotebook(text string) string {
	return `{"nbformat": 3, "nbformat_minor": 0, "worksheets": [{"cells": [
		{"cell_type": "markdown", "source": ["` + text + `"]}
	]}]}`
}

func TestRunOutputDirKeepsSubdirectories(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a/x.ipynb", markdownNotebook("from A"))
	f.write(t, "b/x.ipynb", markdownNotebook("from B"))
	f.cfg.OutputDir = filepath.Join(f.dir, "out")

	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Converted)
	assert.Empty(t, result.Errors)

	for dir, text := range map[string]string{"a": "from A", "b": "from B"} {
		data, err := os.ReadFile(filepath.Join(f.dir, "out", dir, "x.bkr"))
		require.NoError(t, err)
		assert.Contains(t, string(data), text)
	}
}

func TestRunOutputCollisionFails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "x.ipynb", markdownNotebook("lower"))
	f.write(t, "x.IPYNB", markdownNotebook("upper"))

	files, err := ScanDirectory(f.dir, ".ipynb")
	require.NoError(t, err)
	if len(files) < 2 {
		t.Skip("case-insensitive filesystem")
	}

	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error(), "already written")
}

func TestRunRelativeDirUsesAbsoluteKeys(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "n.ipynb", validNotebook)
	t.Chdir(f.dir)

	_, err := f.batcher.Run(context.Background(), ".")
	require.NoError(t, err)

	again, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Converted)
	assert.Equal(t, 1, again.Unchanged)

	resolved, err := filepath.Abs(src)
	require.NoError(t, err)
	assert.Equal(t, []string{resolved}, f.st.Paths())
}

func TestRunReconvertsWhenOutputDirChanges(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.ipynb", validNotebook)

	_, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)

	f.cfg.OutputDir = filepath.Join(f.dir, "out")
	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.FileExists(t, filepath.Join(f.dir, "out", "a.bkr"))
}

func TestRunSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	f := newFixture(t)
	f.write(t, "ok.ipynb", validNotebook)
	f.write(t, "locked/hidden.ipynb", validNotebook)
	locked := filepath.Join(f.dir, "locked")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	result, err := f.batcher.Run(context.Background(), f.dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Converted)
	assert.Contains(t, f.logs.String(), "file skipped")

	var skipped []string
	files, err := ScanDirectoryFunc(f.dir, ".ipynb", func(path string, err error) {
		skipped = append(skipped, path)
	})
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, []string{locked}, skipped)
}

func TestRunMissingDirectory(t *testing.T) {
	f := newFixture(t)
	_, err := f.batcher.Run(context.Background(), filepath.Join(f.dir, "missing"))
	assert.Error(t, err)
}

func TestWatchStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.ipynb", validNotebook)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := 0
	done := make(chan error, 1)
	go func() {
		done <- f.batcher.Watch(ctx, f.dir, time.Hour, func(r *Result, err error) {
			runs++
			assert.NoError(t, err)
			assert.Equal(t, 1, r.Converted)
			cancel()
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Equal(t, 1, runs)
	assert.True(t, strings.Contains(f.logs.String(), "watch stopping"))
}

func TestScanDirectory(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.ipynb", "{}")
	f.write(t, "b.IPYNB", "{}")
	f.write(t, "c.json", "{}")
	f.write(t, "deep/nested/d.ipynb", "{}")
	f.write(t, ".ipynb_checkpoints/e.ipynb", "{}")

	files, err := ScanDirectory(f.dir, ".ipynb")
	require.NoError(t, err)

	var names []string
	for _, p := range files {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"a.ipynb", "b.IPYNB", "d.ipynb"}, names)
}
