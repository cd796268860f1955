package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"repowiki/internal/reconcile"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(Run{
		Status:     "applied",
		Counts:     reconcile.Counts{Added: 2, Updated: 1, Removed: 3},
		Total:      10,
		Skipped:    1,
		Categories: map[string]int{"mcp-servers": 6, "security-tools": 4},
		Duration:   1500 * time.Millisecond,
		Finished:   time.Unix(1_700_000_000, 0),
	})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"runs applied", testutil.ToFloat64(m.runs.WithLabelValues("applied")), 1},
		{"added", testutil.ToFloat64(m.changes.WithLabelValues(reconcile.KindAdded)), 2},
		{"updated", testutil.ToFloat64(m.changes.WithLabelValues(reconcile.KindUpdated)), 1},
		{"removed", testutil.ToFloat64(m.changes.WithLabelValues(reconcile.KindRemoved)), 3},
		{"records", testutil.ToFloat64(m.records), 10},
		{"skipped", testutil.ToFloat64(m.skipped), 1},
		{"category", testutil.ToFloat64(m.categorySize.WithLabelValues("mcp-servers")), 6},
		{"duration", testutil.ToFloat64(m.duration), 1.5},
		{"last success", testutil.ToFloat64(m.lastSuccess), 1_700_000_000},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestObserveRun_CategoriesReset(t *testing.T) {
	m := New()
	m.ObserveRun(Run{Status: "applied", Categories: map[string]int{"a": 1, "b": 2}})
	m.ObserveRun(Run{Status: "applied", Categories: map[string]int{"a": 3}})

	if n := testutil.CollectAndCount(m.categorySize); n != 1 {
		t.Errorf("category series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("applied")); got != 2 {
		t.Errorf("runs = %v, want 2", got)
	}
}

func TestObserveRun_FailedKeepsLastSuccess(t *testing.T) {
	m := New()
	m.ObserveRun(Run{Status: "applied", Total: 5, Finished: time.Unix(100, 0)})
	m.ObserveRun(Run{Status: "failed", Failed: true, Total: 0, Finished: time.Unix(200, 0)})

	if got := testutil.ToFloat64(m.records); got != 5 {
		t.Errorf("records = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess); got != 100 {
		t.Errorf("last success = %v, want 100", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed runs = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveRun(Run{Status: "unchanged", Total: 7})

	path := filepath.Join(t.TempDir(), "repowiki.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"# TYPE repowiki_update_runs_total counter",
		`repowiki_update_runs_total{status="unchanged"} 1`,
		"repowiki_records 7",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q\n%s", want, data)
		}
	}
}
