package db

import (
	"strings"
	"testing"

	storesqlite "github.com/tilevista/wallmask/internal/occlusion/storage/sqlite"
)

func setupMigrateTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(t.TempDir() + "/migrate_test.db")
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	return count > 0
}

func TestMigrateUp_CreatesSchema(t *testing.T) {
	db := setupMigrateTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if !tableExists(t, db, "calibration_runs") {
		t.Error("Expected calibration_runs table after migration")
	}

	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("Expected clean migration state")
	}
	latest, err := LatestMigrationVersion(Migrations())
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if version != latest {
		t.Errorf("Expected version %d after up, got %d", latest, version)
	}
}

func TestMigrateUp_NoChangeIsNotAnError(t *testing.T) {
	db := setupMigrateTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("First MigrateUp failed: %v", err)
	}
	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("Second MigrateUp failed: %v", err)
	}
}

func TestMigrateDown_RollsBack(t *testing.T) {
	db := setupMigrateTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := db.MigrateDown(Migrations()); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	if tableExists(t, db, "calibration_runs") {
		t.Error("Expected calibration_runs table dropped after rollback")
	}
}

func TestMigrateVersion_FreshDatabase(t *testing.T) {
	db := setupMigrateTestDB(t)

	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("Expected version 0 clean on fresh database, got %d (dirty %v)", version, dirty)
	}
}

func TestLatestMigrationVersion(t *testing.T) {
	latest, err := LatestMigrationVersion(Migrations())
	if err != nil {
		t.Fatalf("LatestMigrationVersion failed: %v", err)
	}
	if latest < 1 {
		t.Errorf("Expected at least one migration, got %d", latest)
	}
}

func TestCheckMigrations(t *testing.T) {
	db := setupMigrateTestDB(t)

	err := db.CheckMigrations(Migrations())
	if err == nil {
		t.Fatal("Expected out-of-date error on fresh database")
	}
	if !strings.Contains(err.Error(), "out of date") {
		t.Errorf("Expected out-of-date message, got %v", err)
	}

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	if err := db.CheckMigrations(Migrations()); err != nil {
		t.Errorf("Expected up-to-date database, got %v", err)
	}
}

func TestMigrateForce_SetsVersion(t *testing.T) {
	db := setupMigrateTestDB(t)

	if err := db.MigrateForce(Migrations(), 1); err != nil {
		t.Fatalf("MigrateForce failed: %v", err)
	}
	version, dirty, err := db.MigrateVersion(Migrations())
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("Expected forced version 1 clean, got %d (dirty %v)", version, dirty)
	}
}

// The migrated schema must accept what the calibration store writes.
func TestMigrations_SupportCalibrationStore(t *testing.T) {
	db := setupMigrateTestDB(t)

	if err := db.MigrateUp(Migrations()); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	store := storesqlite.NewCalibrationStore(db.DB)
	run := &storesqlite.CalibrationRun{
		Corpus:      "integration",
		SampleCount: 2,
		F1:          0.8,
		Score:       1.1,
	}
	if err := store.Insert(run); err != nil {
		t.Fatalf("Insert through migrated schema failed: %v", err)
	}
	got, err := store.Get(run.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Corpus != "integration" || got.F1 != 0.8 {
		t.Errorf("Round trip mismatch: %+v", got)
	}
}
