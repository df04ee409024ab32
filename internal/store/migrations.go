package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "decisions: keyed decision log",
		SQL: `
CREATE TABLE decisions (
    key            TEXT PRIMARY KEY,
    head           TEXT NOT NULL,
    rationale      TEXT NOT NULL DEFAULT '',
    confidence     REAL NOT NULL CHECK (confidence >= 0.1 AND confidence <= 1.0),
    pattern_type   TEXT NOT NULL CHECK (pattern_type IN ('explicit', 'implicit', 'comparison', 'technical')),
    session_id     TEXT NOT NULL DEFAULT '',
    role           TEXT NOT NULL DEFAULT '',
    source_text    TEXT NOT NULL DEFAULT '',
    superseded     INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_decisions_superseded ON decisions(superseded);
CREATE INDEX idx_decisions_session    ON decisions(session_id);
CREATE INDEX idx_decisions_created    ON decisions(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "supersedence_log: append-only audit of supersedence transitions",
		SQL: `
CREATE TABLE supersedence_log (
    id              INTEGER PRIMARY KEY,
    superseded_key  TEXT NOT NULL,
    superseding_key TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    FOREIGN KEY (superseded_key)  REFERENCES decisions(key),
    FOREIGN KEY (superseding_key) REFERENCES decisions(key)
);

CREATE INDEX idx_supersedence_superseded  ON supersedence_log(superseded_key);
CREATE INDEX idx_supersedence_superseding ON supersedence_log(superseding_key);

CREATE TRIGGER supersedence_log_no_update BEFORE UPDATE ON supersedence_log
BEGIN
    SELECT RAISE(ABORT, 'supersedence_log is append-only');
END;

CREATE TRIGGER supersedence_log_no_delete BEFORE DELETE ON supersedence_log
BEGIN
    SELECT RAISE(ABORT, 'supersedence_log is append-only');
END;
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

// LatestSchemaVersion is the version a freshly migrated database reports.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}
