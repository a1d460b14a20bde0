package db

import (
	"context"
	"fmt"
)

// normalizeTimestamps rewrites generated_at values stored as Go's default
// time.Time string (as modernc.org/sqlite does when handed a time.Time) to
// the "YYYY-MM-DD HH:MM:SS" form SQLite date functions understand.
func (db *DB) normalizeTimestamps() error {
	query := `
		UPDATE report_runs
		SET generated_at = SUBSTR(generated_at, 1, 19)
		WHERE length(generated_at) > 19 AND generated_at LIKE '% UTC'
	`
	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to normalize timestamps: %w", err)
	}
	return nil
}
