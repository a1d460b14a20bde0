// Package db stores report history and credentials in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens the database at path and initializes the schema.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := db.normalizeTimestamps(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// connPragmas are per connection and run on every connection the pool opens.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

func dsn(path string) string {
	return path + "?_pragma=" + strings.Join(connPragmas, "&_pragma=")
}

func (db *DB) configure() error {
	// journal_mode is stored in the file and only needs setting once.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	return nil
}

func (db *DB) createSchema() error {
	if err := db.createReportRunsTable(); err != nil {
		return err
	}
	if err := db.createReportCellsTable(); err != nil {
		return err
	}
	return db.createCredentialsTable()
}

func (db *DB) createReportRunsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		generated_at DATETIME NOT NULL,
		columns TEXT NOT NULL,
		grand_total INTEGER DEFAULT 0,
		output_path TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_report_runs_project_time ON report_runs(project_id, generated_at);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createReportCellsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS report_cells (
		run_id TEXT NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		col_index INTEGER NOT NULL,
		row_key TEXT NOT NULL,
		value INTEGER NOT NULL,
		PRIMARY KEY (run_id, row_index, col_index)
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createCredentialsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS credentials (
		name TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
