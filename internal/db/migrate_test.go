package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// setupMigrationTestDB opens a database directly so the baseline schema is
// not applied; migrations manage the schema in these tests.
func setupMigrationTestDB(t *testing.T) *DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	sqlDB, err := sql.Open("sqlite", fname)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}

	return &DB{sqlDB}
}

// setupTestMigrations writes a two-step migration set into a temp directory.
func setupTestMigrations(t *testing.T) string {
	t.Helper()
	tmpDir := filepath.Join(t.TempDir(), "migrations")
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		t.Fatalf("failed to create temp migrations dir: %v", err)
	}

	migrations := map[string]string{
		"000001_create_trial_notes.up.sql": `
			CREATE TABLE IF NOT EXISTS trial_notes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				subject_id TEXT NOT NULL,
				note TEXT NOT NULL
			);
		`,
		"000001_create_trial_notes.down.sql": `
			DROP TABLE IF EXISTS trial_notes;
		`,
		"000002_add_question_column.up.sql": `
			ALTER TABLE trial_notes ADD COLUMN question_id TEXT;
		`,
		"000002_add_question_column.down.sql": `
			-- SQLite can't drop columns directly, so recreate the table
			CREATE TABLE trial_notes_new (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				subject_id TEXT NOT NULL,
				note TEXT NOT NULL
			);
			INSERT INTO trial_notes_new (id, subject_id, note) SELECT id, subject_id, note FROM trial_notes;
			DROP TABLE trial_notes;
			ALTER TABLE trial_notes_new RENAME TO trial_notes;
		`,
	}

	for filename, content := range migrations {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write migration file %s: %v", filename, err)
		}
	}

	return tmpDir
}

func TestMigrateUp(t *testing.T) {
	db := setupMigrationTestDB(t)
	defer cleanupTestDB(t, db)

	dir := setupTestMigrations(t)

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
	if dirty {
		t.Error("database should not be dirty after successful migration")
	}

	var tableExists bool
	err = db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type = 'table' AND name = 'trial_notes'
	`).Scan(&tableExists)
	if err != nil {
		t.Fatalf("failed to check table: %v", err)
	}
	if !tableExists {
		t.Error("expected trial_notes table after migration")
	}

	// MigrateUp is a no-op when already at the latest version
	if err := db.MigrateUp(dir); err != nil {
		t.Errorf("second MigrateUp failed: %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := setupMigrationTestDB(t)
	defer cleanupTestDB(t, db)

	dir := setupTestMigrations(t)

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := db.MigrateDown(dir); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}

	version, _, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after rollback, got %d", version)
	}
}

func TestMigrateVersion_FreshDatabase(t *testing.T) {
	db := setupMigrationTestDB(t)
	defer cleanupTestDB(t, db)

	dir := setupTestMigrations(t)

	version, dirty, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("expected version 0 and clean on fresh DB, got %d (dirty: %v)", version, dirty)
	}
}

func TestMigrateTo(t *testing.T) {
	db := setupMigrationTestDB(t)
	defer cleanupTestDB(t, db)

	dir := setupTestMigrations(t)

	if err := db.MigrateTo(dir, 1); err != nil {
		t.Fatalf("MigrateTo failed: %v", err)
	}

	version, _, err := db.MigrateVersion(dir)
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1, got %d", version)
	}
}

func TestGetLatestMigrationVersion(t *testing.T) {
	dir := setupTestMigrations(t)

	latest, err := GetLatestMigrationVersion(dir)
	if err != nil {
		t.Fatalf("GetLatestMigrationVersion failed: %v", err)
	}
	if latest != 2 {
		t.Errorf("expected latest version 2, got %d", latest)
	}
}

func TestGetLatestMigrationVersion_EmptyDir(t *testing.T) {
	_, err := GetLatestMigrationVersion(t.TempDir())
	if err == nil {
		t.Fatal("expected error for directory without migrations")
	}
}

func TestCheckMigrations(t *testing.T) {
	db := setupMigrationTestDB(t)
	defer cleanupTestDB(t, db)

	dir := setupTestMigrations(t)

	outdated, err := db.CheckMigrations(dir)
	if !outdated || err == nil {
		t.Errorf("expected fresh DB to be flagged out of date, got %v, %v", outdated, err)
	}

	if err := db.MigrateUp(dir); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	outdated, err = db.CheckMigrations(dir)
	if outdated || err != nil {
		t.Errorf("expected up-to-date DB to pass, got %v, %v", outdated, err)
	}
}
