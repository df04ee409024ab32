package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "verdict.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Path != path {
		t.Errorf("Path = %q, want %q", db.Path, path)
	}
}

func TestOpenFilePragmasPerConnection(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "verdict.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	// Hold one connection so the query below runs on a second one.
	held, err := db.Conn(context.Background())
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("SchemaVersion = %d, want 2", v)
	}
	if latest := LatestSchemaVersion(); latest != v {
		t.Errorf("LatestSchemaVersion = %d, want %d", latest, v)
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "decisions", "supersedence_log"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestDecisionsConstraints(t *testing.T) {
	db := testDB(t)

	// Valid insert
	_, err := db.Exec(`
		INSERT INTO decisions (key, head, confidence, pattern_type, created_at, updated_at)
		VALUES ('k1', 'use sqlite', 0.8, 'explicit', 1000, 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Invalid pattern_type
	_, err = db.Exec(`
		INSERT INTO decisions (key, head, confidence, pattern_type, created_at, updated_at)
		VALUES ('k2', 'use sqlite', 0.8, 'invalid', 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid pattern_type, got nil")
	}

	// Confidence out of range
	_, err = db.Exec(`
		INSERT INTO decisions (key, head, confidence, pattern_type, created_at, updated_at)
		VALUES ('k3', 'use sqlite', 1.5, 'explicit', 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for confidence 1.5, got nil")
	}

	// Duplicate key
	_, err = db.Exec(`
		INSERT INTO decisions (key, head, confidence, pattern_type, created_at, updated_at)
		VALUES ('k1', 'use postgres', 0.8, 'explicit', 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for duplicate key, got nil")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 2", v)
	}
}

func TestWALMode(t *testing.T) {
	db := testDB(t)

	var mode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	// In-memory databases may use "memory" mode instead of WAL
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var fk int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
