// Package db opens and migrates the calibration database. Schema changes go
// through the embedded migrations; calibration reads and writes live in
// internal/occlusion/storage/sqlite.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the calibration database handle.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path, creating the file if needed. The
// pragmas ride the DSN so every pooled connection gets them: WAL plus a busy
// timeout keep monitor reads from stalling tool writes, and the relaxed
// sync/temp settings are fine for re-derivable calibration data.
func NewDB(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode=WAL&_pragma=busy_timeout=5000&_pragma=synchronous=NORMAL&_pragma=temp_store=MEMORY&_pragma=foreign_keys=ON", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return &DB{db}, nil
}
