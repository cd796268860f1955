package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"repowiki/internal/reconcile"
)

// RunStatus is the outcome of an update run.
type RunStatus string

const (
	StatusApplied   RunStatus = "applied"
	StatusUnchanged RunStatus = "unchanged"
	StatusDryRun    RunStatus = "dry-run"
	StatusFailed    RunStatus = "failed"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one update invocation.
type Run struct {
	ID              string           `json:"id"`
	StartedAt       time.Time        `json:"startedAt"`
	FinishedAt      time.Time        `json:"finishedAt"`
	Source          string           `json:"source"`
	Status          RunStatus        `json:"status"`
	Forced          bool             `json:"forced"`
	Observed        int              `json:"observed"`
	Skipped         int              `json:"skipped"`
	Counts          reconcile.Counts `json:"counts"`
	Total           int              `json:"total"`
	PrevFingerprint string           `json:"prevFingerprint,omitempty"`
	NextFingerprint string           `json:"nextFingerprint,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// NewRun starts a run record with a fresh id.
func NewRun(source string, started time.Time) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: started.UTC(), Source: source}
}

// ChangeRow is one stored diff entry.
type ChangeRow struct {
	Kind   string   `json:"kind"`
	Key    string   `json:"key"`
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// Rows flattens a diff in added, updated, removed order.
func Rows(d reconcile.Diff) []ChangeRow {
	rows := make([]ChangeRow, 0, len(d.Added)+len(d.Updated)+len(d.Removed))
	for _, r := range d.Added {
		rows = append(rows, ChangeRow{Kind: reconcile.KindAdded, Key: r.Key(), Name: r.Name})
	}
	for _, c := range d.Updated {
		rows = append(rows, ChangeRow{Kind: reconcile.KindUpdated, Key: c.Key, Name: c.After.Name, Fields: c.Fields})
	}
	for _, r := range d.Removed {
		rows = append(rows, ChangeRow{Kind: reconcile.KindRemoved, Key: r.Key(), Name: r.Name})
	}
	return rows
}

// Record stores run together with its diff.
func (s *Store) Record(ctx context.Context, run *Run, d reconcile.Diff) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, started_at, finished_at, source, status, forced,
				observed, skipped, added, updated, removed, total,
				prev_fingerprint, next_fingerprint, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			formatTime(run.FinishedAt),
			run.Source,
			string(run.Status),
			boolInt(run.Forced),
			run.Observed,
			run.Skipped,
			run.Counts.Added,
			run.Counts.Updated,
			run.Counts.Removed,
			run.Total,
			nullString(run.PrevFingerprint),
			nullString(run.NextFingerprint),
			nullString(run.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_changes (run_id, seq, kind, key, name, fields) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range Rows(d) {
			if _, err := stmt.ExecContext(ctx, run.ID, i, row.Kind, row.Key, row.Name,
				nullString(strings.Join(row.Fields, ","))); err != nil {
				return fmt.Errorf("failed to insert change: %w", err)
			}
		}
		return nil
	})
}

const runColumns = `id, started_at, finished_at, source, status, forced, observed, skipped,
	added, updated, removed, total, prev_fingerprint, next_fingerprint, error`

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Last returns the newest run, or nil when none exist.
func (s *Store) Last(ctx context.Context) (*Run, error) {
	runs, err := s.List(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// Get returns the run with the given id or id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`, id+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("run %q not found", id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", id)
	}
}

// Changes returns the stored diff of a run in recorded order.
func (s *Store) Changes(ctx context.Context, runID string) ([]ChangeRow, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT kind, key, name, fields FROM run_changes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChangeRow
	for rows.Next() {
		var row ChangeRow
		var fields sql.NullString
		if err := rows.Scan(&row.Kind, &row.Key, &row.Name, &fields); err != nil {
			return nil, err
		}
		if fields.Valid && fields.String != "" {
			row.Fields = strings.Split(fields.String, ",")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.conn.ExecContext(ctx, `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var started string
	var finished, prevFP, nextFP, errMsg sql.NullString
	var status string
	var forced int
	if err := sc.Scan(&run.ID, &started, &finished, &run.Source, &status, &forced,
		&run.Observed, &run.Skipped, &run.Counts.Added, &run.Counts.Updated, &run.Counts.Removed,
		&run.Total, &prevFP, &nextFP, &errMsg); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.Forced = forced != 0
	run.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(timeLayout, finished.String)
	}
	run.PrevFingerprint = prevFP.String
	run.NextFingerprint = nextFP.String
	run.Error = errMsg.String
	return &run, nil
}

func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
