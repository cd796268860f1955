// Package watcher reruns a callback when a snapshot file or directory
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"repowiki/internal/slogutil"
)

// EventType is the kind of file system change.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one relevant change.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler receives a debounced batch of events.
type ChangeHandler func(events []Event)

// Watcher observes one snapshot path. For a file, its parent directory is
// watched and events are filtered to the file name, so editors that save
// via rename are still seen. For a directory, page files inside it count.
type Watcher struct {
	target   string
	isDir    bool
	debounce time.Duration
	handler  ChangeHandler
	logger   *slog.Logger
}

// New creates a watcher for target.
func New(target string, debounce time.Duration, handler ChangeHandler, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", target, err)
	}
	return &Watcher{
		target:   abs,
		isDir:    info.IsDir(),
		debounce: debounce,
		handler:  handler,
		logger:   logger,
	}, nil
}

// Run watches until ctx is cancelled. Pending events are flushed on exit.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := w.target
	if !w.isDir {
		dir = filepath.Dir(w.target)
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching for changes", "path", w.target, "debounce", w.debounce.String())

	batch := NewBatchDebouncer(w.debounce, w.handler)
	defer batch.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if typ, ok := eventType(ev); ok {
				w.logger.Debug("Snapshot changed", "path", ev.Name, "op", typ.String())
				batch.Add(Event{Type: typ, Path: ev.Name, Timestamp: time.Now()})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", "error", err.Error())
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	if !w.isDir {
		return filepath.Clean(name) == w.target
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json", ".html", ".htm":
		return true
	}
	return false
}

func eventType(ev fsnotify.Event) (EventType, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return EventCreate, true
	case ev.Has(fsnotify.Write):
		return EventModify, true
	case ev.Has(fsnotify.Remove):
		return EventDelete, true
	case ev.Has(fsnotify.Rename):
		return EventRename, true
	}
	return 0, false
}
