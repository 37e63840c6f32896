// Package batch converts every IPython notebook under a directory,
// skipping notebooks whose content has not changed since the last run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/config"
	"github.com/gerunddev/nbimport/internal/convert"
	"github.com/gerunddev/nbimport/internal/logger"
	"github.com/gerunddev/nbimport/internal/state"
)

// checkpointDir holds editor autosaves that should never be converted
const checkpointDir = ".ipynb_checkpoints"

// Importer is the part of importer.IPynb the batch needs
type Importer interface {
	ImportWithStats(data []byte) (*beaker.Notebook, convert.Stats, error)
}

// Status of a single file in a batch
type Status string

const (
	StatusConverted Status = "converted"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// FileResult is the outcome for one notebook
type FileResult struct {
	Source  string
	Output  string
	Status  Status
	Cells   int
	Skipped int
	Err     error
}

// Result represents the result of a batch run
type Result struct {
	Files     []FileResult
	Converted int
	Unchanged int
	Errors    []error
	StartTime time.Time
	EndTime   time.Time
}

// Batcher converts directories of notebooks
type Batcher struct {
	config   *config.Config
	state    *state.State
	importer Importer
	log      *logger.Logger

	// DryRun converts but writes neither outputs nor state
	DryRun bool
	// Force reconverts notebooks even when unchanged
	Force bool
	// StatePath is where state is saved after each run; empty disables saving
	StatePath string
	// OnFile is called after each notebook is handled
	OnFile func(FileResult)
}

// NewBatcher creates a new batcher instance
func NewBatcher(cfg *config.Config, st *state.State, imp Importer) *Batcher {
	return &Batcher{
		config:   cfg,
		state:    st,
		importer: imp,
		log:      logger.Discard(),
	}
}

// SetLogger sets the logger
func (b *Batcher) SetLogger(l *logger.Logger) {
	b.log = l
}

// Run converts every changed notebook under dir. If ctx is cancelled the
// remaining notebooks are left alone, state is still saved, and ctx's
// error is returned with the partial result.
func (b *Batcher) Run(ctx context.Context, dir string) (*Result, error) {
	result := &Result{
		StartTime: time.Now(),
	}

	// State is keyed by absolute path whatever the working directory
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	outDir := b.config.OutputDir
	if outDir == "" {
		outDir = dir
	}
	b.log.BatchStarted(dir, outDir)

	files, err := ScanDirectoryFunc(dir, ".ipynb", func(path string, err error) {
		b.log.FileSkipped(path, err.Error())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	// output path -> source that claimed it
	claimed := make(map[string]string, len(files))

	var cancelErr error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}

		var fr FileResult
		output := b.config.OutputPathUnder(dir, path)
		if other, taken := claimed[output]; taken {
			fr = FileResult{
				Source: path,
				Output: output,
				Status: StatusFailed,
				Err:    fmt.Errorf("output %s already written for %s", output, other),
			}
			b.log.ImportFailed(path, fr.Err)
		} else {
			claimed[output] = path
			fr = b.process(path, output)
		}

		switch fr.Status {
		case StatusConverted:
			result.Converted++
		case StatusUnchanged:
			result.Unchanged++
		case StatusFailed:
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, fr.Err))
		}
		result.Files = append(result.Files, fr)

		if b.OnFile != nil {
			b.OnFile(fr)
		}
	}

	if !b.DryRun {
		b.state.Prune()
		if b.StatePath != "" {
			if err := b.state.Save(b.StatePath); err != nil {
				b.log.StateError("save", err)
				result.Errors = append(result.Errors, err)
			}
		}
	}

	result.EndTime = time.Now()
	b.log.BatchCompleted(result.Converted, result.Unchanged, len(result.Errors), result.EndTime.Sub(result.StartTime))
	return result, cancelErr
}

func (b *Batcher) process(path, output string) FileResult {
	fr := FileResult{
		Source: path,
		Output: output,
	}

	// A record written for another output path does not cover this one
	rec, known := b.state.Records[path]
	moved := known && rec.Output != output

	if !b.Force && !moved {
		changed, err := b.state.HasChanged(path)
		if err != nil {
			fr.Status = StatusFailed
			fr.Err = err
			b.log.ImportFailed(path, err)
			return fr
		}
		if !changed {
			fr.Status = StatusUnchanged
			b.log.FileSkipped(path, "unchanged since last conversion")
			return fr
		}
	}

	start := time.Now()
	b.log.ConversionStarted(path)

	stats, err := b.ConvertFile(path, fr.Output)
	if err != nil {
		fr.Status = StatusFailed
		fr.Err = err
		b.log.ImportFailed(path, err)
		return fr
	}

	fr.Status = StatusConverted
	fr.Cells = stats.Cells()
	fr.Skipped = stats.Skipped
	b.log.ConversionCompleted(path, fr.Output, fr.Cells, fr.Skipped, time.Since(start))

	if !b.DryRun {
		if err := b.state.Update(path, fr.Output, fr.Cells, fr.Skipped); err != nil {
			b.log.StateError("update", err)
		}
	}
	return fr
}

// ConvertFile imports src and writes the notebook to dest unless DryRun
func (b *Batcher) ConvertFile(src, dest string) (convert.Stats, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return convert.Stats{}, fmt.Errorf("failed to read notebook: %w", err)
	}

	nb, stats, err := b.importer.ImportWithStats(data)
	if err != nil {
		return stats, err
	}

	if b.DryRun {
		return stats, nil
	}
	if err := beaker.WriteFile(dest, nb, b.config.Indent); err != nil {
		return stats, err
	}
	return stats, nil
}

// Watch runs the batch once and then on every tick of interval until ctx
// is cancelled. Each result is passed to onResult.
func (b *Batcher) Watch(ctx context.Context, dir string, interval time.Duration, onResult func(*Result, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.log.Info("watch started", "dir", dir, "interval", interval)

	// Initial run
	result, err := b.Run(ctx, dir)
	if onResult != nil {
		onResult(result, err)
	}

	for {
		select {
		case <-ticker.C:
			result, err := b.Run(ctx, dir)
			if err != nil && ctx.Err() == nil {
				b.log.Error("batch failed", "error", err)
			}
			if onResult != nil {
				onResult(result, err)
			}

		case <-ctx.Done():
			b.log.Info("watch stopping")
			return nil
		}
	}
}

// ScanDirectory scans a directory for files with given extension,
// skipping notebook checkpoint directories
func ScanDirectory(dir string, ext string) ([]string, error) {
	return ScanDirectoryFunc(dir, ext, nil)
}

// ScanDirectoryFunc is ScanDirectory that also skips entries below dir
// that cannot be read, reporting each one to onSkip. An unreadable dir
// itself is still an error.
func ScanDirectoryFunc(dir string, ext string, onSkip func(path string, err error)) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir || !(errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist)) {
				return err
			}
			if onSkip != nil {
				onSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == checkpointDir {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// String returns a human-readable summary of the batch result
func (r *Result) String() string {
	duration := r.EndTime.Sub(r.StartTime)
	return fmt.Sprintf(
		"Batch complete: %d converted, %d unchanged, %d errors (took %v)",
		r.Converted,
		r.Unchanged,
		len(r.Errors),
		duration.Round(time.Millisecond),
	)
}
