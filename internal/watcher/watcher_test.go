package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestBatchDebouncer_CoalescesEvents(t *testing.T) {
	var mu sync.Mutex
	var batches [][]Event
	done := make(chan struct{}, 1)

	b := NewBatchDebouncer(30*time.Millisecond, func(evs []Event) {
		mu.Lock()
		batches = append(batches, evs)
		mu.Unlock()
		done <- struct{}{}
	})
	for i := 0; i < 5; i++ {
		b.Add(Event{Type: EventModify, Path: "a.json"})
	}
	if b.Pending() != 5 {
		t.Errorf("Pending = %d, want 5", b.Pending())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch was not emitted")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 || len(batches[0]) != 5 {
		t.Errorf("batches = %v, want one batch of 5", batches)
	}
}

func TestBatchDebouncer_FlushAndCancel(t *testing.T) {
	var got int
	b := NewBatchDebouncer(time.Hour, func(evs []Event) { got += len(evs) })

	b.Add(Event{Path: "x"})
	b.Flush()
	if got != 1 {
		t.Errorf("after Flush got %d, want 1", got)
	}

	b.Add(Event{Path: "y"})
	b.Cancel()
	b.Flush()
	if got != 1 || b.Pending() != 0 {
		t.Errorf("cancelled events should be dropped, got %d pending %d", got, b.Pending())
	}
}

func TestEventType_String(t *testing.T) {
	tests := map[EventType]string{
		EventCreate:   "create",
		EventModify:   "modify",
		EventDelete:   "delete",
		EventRename:   "rename",
		EventType(99): "unknown",
	}
	for typ, want := range tests {
		if typ.String() != want {
			t.Errorf("%d.String() = %q, want %q", typ, typ.String(), want)
		}
	}
}

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "snap.json")
	_ = os.WriteFile(file, []byte("[]"), 0o644)

	fw, err := New(file, time.Millisecond, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !fw.relevant(file) || fw.relevant(filepath.Join(dir, "other.json")) {
		t.Error("file watcher should only accept its target")
	}

	dw, err := New(dir, time.Millisecond, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]bool{
		"page-1.html":      true,
		"page-2.JSON":      true,
		".snap.json.1.tmp": false,
		"notes.txt":        false,
	} {
		if got := dw.relevant(filepath.Join(dir, name)); got != want {
			t.Errorf("relevant(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestWatcher_MissingTarget(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent.json"), time.Millisecond, nil, nil); err == nil {
		t.Error("expected error for missing target")
	}
}

func TestWatcher_RunDeliversChanges(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "snap.json")
	if err := os.WriteFile(file, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan []Event, 4)
	w, err := New(file, 20*time.Millisecond, func(evs []Event) {
		select {
		case got <- evs:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	// Keep writing until the watcher has registered and reported.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case evs := <-got:
			if len(evs) == 0 || evs[0].Path != file {
				t.Errorf("events = %+v", evs)
			}
			cancel()
			if err := <-errc; err != nil {
				t.Errorf("Run returned %v", err)
			}
			return
		case <-tick.C:
			_ = os.WriteFile(file, []byte(`[{"url":"u","name":"n"}]`), 0o644)
			_ = os.WriteFile(filepath.Join(dir, "unrelated.json"), []byte("{}"), 0o644)
		case <-deadline:
			t.Fatal("no change delivered")
		}
	}
}
