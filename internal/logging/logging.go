// Package logging builds the zerolog logger shared by the CLI and the store.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const (
	permission    = 0o664
	dirPermission = 0o755
)

// Builder collects logger options.
type Builder struct {
	writer  io.Writer
	path    string
	level   string
	console bool
}

// Logger is a built logger and the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New returns a Builder writing JSON lines to stderr at info level.
func New() *Builder {
	return &Builder{writer: os.Stderr, level: "info"}
}

// FromPath appends to the log file at path instead of the writer. Missing
// parent directories are created.
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

// FromWriter writes to w.
func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// Level sets the minimum level by name (debug, info, warn, error, disabled).
func (b *Builder) Level(level string) *Builder {
	b.level = level
	return b
}

// Console switches to human-readable output.
func (b *Builder) Console(on bool) *Builder {
	b.console = on
	return b
}

// Make builds the logger.
func (b *Builder) Make() (*Logger, error) {
	lvl := zerolog.InfoLevel
	if b.level != "" {
		parsed, err := zerolog.ParseLevel(b.level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		lvl = parsed
	}

	out := &Logger{}
	w := b.writer
	if w == nil {
		w = os.Stderr
	}
	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), dirPermission); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	if b.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: b.path != ""}
	}

	out.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return out, nil
}

// Close closes the log file, if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
