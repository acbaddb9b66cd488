// Package history provides SQLite-backed persistence of analysis runs.
//
// The analyzer's output order is deterministic precisely so that successive
// reports can be diffed; this package stores each run's findings in
// .mvx/history.db and computes those diffs.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mvx/internal/report"
)

// History manages the .mvx/history.db SQLite database.
type History struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database at the specified .mvx directory.
// It initializes the schema if the database is new.
func Open(mvxDir string) (*History, error) {
	dbPath := filepath.Join(mvxDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	h := &History{db: db, dbPath: dbPath}

	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// RunSummary is one stored run.
type RunSummary struct {
	ID                    int64     `yaml:"id" json:"id"`
	CreatedAt             time.Time `yaml:"created_at" json:"created_at"`
	Severity              string    `yaml:"severity" json:"severity"`
	Entities              int       `yaml:"entities" json:"entities"`
	Views                 int       `yaml:"views" json:"views"`
	StructuralErrors      int       `yaml:"structural_errors" json:"structural_errors"`
	DuplicateFields       int       `yaml:"duplicate_fields" json:"duplicate_fields"`
	Gaps                  int       `yaml:"gaps" json:"gaps"`
	UnimplementedComputes int       `yaml:"unimplemented_computes" json:"unimplemented_computes"`
	UnboundViews          int       `yaml:"unbound_views" json:"unbound_views"`
	DocumentErrors        int       `yaml:"document_errors" json:"document_errors"`
}

// Finding is one stored finding row.
type Finding struct {
	Class  string `yaml:"class" json:"class"`
	Entity string `yaml:"entity" json:"entity"`
	Field  string `yaml:"field,omitempty" json:"field,omitempty"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Key identifies a finding across runs.
func (f Finding) Key() string {
	return f.Class + "\x00" + f.Entity + "\x00" + f.Field
}

// RecordRun stores one report and its findings. Returns the new run ID.
func (h *History) RecordRun(r *report.Report) (int64, error) {
	tx, err := h.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(created_at, severity, entities, views, structural_errors, duplicate_fields,
		 gaps, unimplemented_computes, unbound_views, document_errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GeneratedAt.Format(time.RFC3339), r.Summary.Severity.String(),
		r.Summary.EntitiesScanned, r.Summary.ViewsScanned,
		r.Summary.StructuralErrors, r.Summary.DuplicateFields,
		r.Summary.Gaps, r.Summary.UnimplementedComputes,
		r.Summary.UnboundViews, r.Summary.DocumentErrors)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	insert, err := tx.Prepare(`INSERT INTO findings (run_id, class, entity, field, detail) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare findings insert: %w", err)
	}
	defer insert.Close()

	for _, f := range flatten(r) {
		if _, err := insert.Exec(runID, f.Class, f.Entity, f.Field, f.Detail); err != nil {
			return 0, fmt.Errorf("insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// flatten converts the report's record classes into finding rows.
func flatten(r *report.Report) []Finding {
	var out []Finding
	for _, e := range r.Findings.StructuralErrors {
		out = append(out, Finding{Class: "structural_error", Entity: e.Entity, Detail: e.Message})
	}
	for _, d := range r.Findings.Duplicates {
		out = append(out, Finding{Class: "duplicate_field", Entity: d.Entity, Field: d.Field})
	}
	for _, g := range r.Findings.Gaps {
		out = append(out, Finding{Class: "gap", Entity: g.Entity, Field: g.Field,
			Detail: strings.Join(g.Views, ",")})
	}
	for _, c := range r.Findings.Computes {
		out = append(out, Finding{Class: "unimplemented_compute", Entity: c.Entity, Field: c.Field, Detail: c.Compute})
	}
	for _, u := range r.Findings.UnboundViews {
		out = append(out, Finding{Class: "unbound_view", Entity: u.Entity, Field: u.View})
	}
	return out
}

// Runs returns the most recent runs, newest first.
func (h *History) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(`SELECT id, created_at, severity, entities, views,
		structural_errors, duplicate_fields, gaps, unimplemented_computes,
		unbound_views, document_errors
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt string
		if err := rows.Scan(&r.ID, &createdAt, &r.Severity, &r.Entities, &r.Views,
			&r.StructuralErrors, &r.DuplicateFields, &r.Gaps,
			&r.UnimplementedComputes, &r.UnboundViews, &r.DocumentErrors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Findings returns the findings of one run in stored order.
func (h *History) Findings(runID int64) ([]Finding, error) {
	rows, err := h.db.Query(`SELECT class, entity, field, detail FROM findings
		WHERE run_id = ? ORDER BY class, entity, field`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.Class, &f.Entity, &f.Field, &f.Detail); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Diff compares two runs and returns the findings introduced and resolved
// between them.
type Diff struct {
	FromRun  int64     `yaml:"from_run" json:"from_run"`
	ToRun    int64     `yaml:"to_run" json:"to_run"`
	Added    []Finding `yaml:"added,omitempty" json:"added,omitempty"`
	Resolved []Finding `yaml:"resolved,omitempty" json:"resolved,omitempty"`
}

// DiffRuns computes the finding diff between two stored runs.
func (h *History) DiffRuns(fromID, toID int64) (*Diff, error) {
	from, err := h.Findings(fromID)
	if err != nil {
		return nil, err
	}
	to, err := h.Findings(toID)
	if err != nil {
		return nil, err
	}

	fromKeys := make(map[string]bool, len(from))
	for _, f := range from {
		fromKeys[f.Key()] = true
	}
	toKeys := make(map[string]bool, len(to))
	for _, f := range to {
		toKeys[f.Key()] = true
	}

	diff := &Diff{FromRun: fromID, ToRun: toID}
	for _, f := range to {
		if !fromKeys[f.Key()] {
			diff.Added = append(diff.Added, f)
		}
	}
	for _, f := range from {
		if !toKeys[f.Key()] {
			diff.Resolved = append(diff.Resolved, f)
		}
	}
	return diff, nil
}

// DiffLatest diffs the two most recent runs.
func (h *History) DiffLatest() (*Diff, error) {
	runs, err := h.Runs(2)
	if err != nil {
		return nil, err
	}
	if len(runs) < 2 {
		return nil, fmt.Errorf("need at least two recorded runs, have %d", len(runs))
	}
	// runs are newest first
	return h.DiffRuns(runs[1].ID, runs[0].ID)
}
