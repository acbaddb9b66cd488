package history

// schemaSQL defines the SQLite schema for the history database.
// Tables:
//   - runs: one row per analysis run with its summary counts
//   - findings: one row per finding, keyed by run, for report diffing
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    severity TEXT NOT NULL,
    entities INTEGER NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    structural_errors INTEGER NOT NULL DEFAULT 0,
    duplicate_fields INTEGER NOT NULL DEFAULT 0,
    gaps INTEGER NOT NULL DEFAULT 0,
    unimplemented_computes INTEGER NOT NULL DEFAULT 0,
    unbound_views INTEGER NOT NULL DEFAULT 0,
    document_errors INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS findings (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    class TEXT NOT NULL,
    entity TEXT NOT NULL,
    field TEXT NOT NULL DEFAULT '',
    detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_key ON findings(run_id, class, entity, field);
`

// initSchema creates the database tables and indexes if they don't exist.
func (h *History) initSchema() error {
	_, err := h.db.Exec(schemaSQL)
	return err
}
