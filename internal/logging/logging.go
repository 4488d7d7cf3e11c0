// Package logging builds the zerolog loggers used by the CLI, the TUI and the dev server.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o644

type Builder struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// Logger is a built logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

func New() *Builder {
	return &Builder{level: zerolog.InfoLevel}
}

// FromPath appends to the file at path (parent directories are created).
func (b *Builder) FromPath(path string) *Builder {
	b.path = path
	return b
}

func (b *Builder) FromWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// Level sets the minimum level by name; unknown names keep the current level.
func (b *Builder) Level(name string) *Builder {
	name = strings.TrimSpace(name)
	if name == "" {
		return b
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
		b.level = lvl
	}
	return b
}

// Make builds the logger. With neither a path nor a writer it discards everything.
func (b *Builder) Make() (*Logger, error) {
	out := &Logger{}
	w := b.writer
	if b.path != "" {
		if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	if w == nil {
		out.Logger = zerolog.Nop()
		return out, nil
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Console is a human-readable stderr logger for interactive commands.
func Console(level string) zerolog.Logger {
	lg, _ := New().FromWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).Level(level).Make()
	return lg.Logger
}
