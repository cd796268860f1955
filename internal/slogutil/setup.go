package slogutil

import (
	"io"
	"log/slog"
)

// Options selects where and how the CLI logs.
type Options struct {
	Format     string // "text" or "json"
	Level      string // file level
	File       string
	MaxSize    string
	MaxBackups int
	Verbosity  int
	Quiet      bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger. Console output goes to stderr at the
// verbosity level; when File is set, records at Level are also appended
// there. The returned closer releases the file.
func Setup(stderr io.Writer, o Options) (*slog.Logger, io.Closer, error) {
	console := newHandler(stderr, o.Format, LevelFromVerbosity(o.Verbosity, o.Quiet))
	if o.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	maxSize, err := ParseSize(o.MaxSize)
	if err != nil {
		return nil, nil, err
	}
	rf, err := OpenRotatingFile(o.File, maxSize, o.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	file := newHandler(rf, o.Format, LevelFromString(o.Level))
	return slog.New(NewTeeHandler(console, file)), rf, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewLineHandler(w, opts)
}
