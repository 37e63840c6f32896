package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that appends to a file and copies every
// entry to the extra writers
func NewFileLogger(path string, level log.Level, extra ...io.Writer) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		f.Close()
	}

	if len(extra) > 0 {
		return NewMultiLogger(level, append([]io.Writer{f}, extra...)...), cleanup, nil
	}
	return NewWithLevel(f, level), cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level log.Level, writers ...io.Writer) *Logger {
	return NewWithLevel(io.MultiWriter(writers...), level)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel maps a config level name to a log level, defaulting to info
func ParseLevel(name string) log.Level {
	if name == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ConversionStarted logs the start of a notebook import
func (l *Logger) ConversionStarted(source string) {
	l.Debug("conversion started",
		"source", source)
}

// ConversionCompleted logs a finished import
func (l *Logger) ConversionCompleted(source, dest string, cells, skipped int, duration time.Duration) {
	l.Info("conversion completed",
		"source", source,
		"dest", dest,
		"cells", cells,
		"skipped", skipped,
		"duration", duration.Round(time.Millisecond))
}

// CellSkipped logs a cell with an unrecognized cell_type
func (l *Logger) CellSkipped(index int, cellType string) {
	l.Warn("unrecognized cell type",
		"cell", index,
		"cell_type", cellType)
}

// OutputIgnored logs a code cell whose first output has no supported shape
func (l *Logger) OutputIgnored(index int, outputType string) {
	l.Debug("output ignored",
		"cell", index,
		"output_type", outputType)
}

// LanguageOverridden logs a code cell whose declared language differs from
// the evaluator it is imported under
func (l *Logger) LanguageOverridden(index int, language, evaluator string) {
	l.Debug("language overridden",
		"cell", index,
		"language", language,
		"evaluator", evaluator)
}

// ImportFailed logs a failed import
func (l *Logger) ImportFailed(source string, err error) {
	l.Error("import failed",
		"source", source,
		"error", err)
}

// BatchStarted logs the start of a directory conversion
func (l *Logger) BatchStarted(dir, outDir string) {
	l.Info("batch started",
		"dir", dir,
		"out_dir", outDir)
}

// BatchCompleted logs the end of a directory conversion
func (l *Logger) BatchCompleted(converted, skipped, errors int, duration time.Duration) {
	l.Info("batch completed",
		"converted", converted,
		"skipped", skipped,
		"errors", errors,
		"duration", duration.Round(time.Millisecond))
}

// FileSkipped logs when a file is skipped
func (l *Logger) FileSkipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(notebookDir, outputDir string, strict bool) {
	l.Debug("config loaded",
		"notebook_dir", notebookDir,
		"output_dir", outputDir,
		"strict_version", strict)
}
