package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/table"
)

// Errors returned by run lookups.
var (
	ErrRunNotFound  = errors.New("report run not found")
	ErrRunAmbiguous = errors.New("report run id prefix is ambiguous")
)

// SaveRun stores a report run and its matrix. A missing run ID is generated
// and GrandTotal is taken from the matrix.
func (db *DB) SaveRun(run *models.ReportRun, m table.Matrix) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.GeneratedAt.IsZero() {
		run.GeneratedAt = time.Now()
	}
	run.GrandTotal = m.GrandTotal()

	columns, err := json.Marshal(m.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs (id, project_id, generated_at, columns, grand_total, output_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.ProjectID,
		run.GeneratedAt.UTC().Format(timeLayout),
		string(columns),
		run.GrandTotal,
		nullString(run.OutputPath),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO report_cells (run_id, row_index, col_index, row_key, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cell insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for r, row := range m.Rows {
		for c, v := range row.Values {
			if _, err := stmt.ExecContext(ctx, run.ID, r, c, row.Key, v); err != nil {
				return fmt.Errorf("failed to insert report cell: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first. An empty projectID
// lists runs of all projects.
func (db *DB) ListRuns(projectID string, limit int) ([]models.ReportRun, error) {
	query := `
		SELECT id, project_id, generated_at, grand_total, output_path
		FROM report_runs
		WHERE (? = '' OR project_id = ?)
		ORDER BY generated_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, projectID, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(rows *sql.Rows) (models.ReportRun, error) {
	var run models.ReportRun
	var generatedAt string
	var outputPath sql.NullString

	err := rows.Scan(&run.ID, &run.ProjectID, &generatedAt, &run.GrandTotal, &outputPath)
	if err != nil {
		return run, fmt.Errorf("failed to scan report run: %w", err)
	}
	if run.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return run, err
	}
	run.OutputPath = outputPath.String
	return run, nil
}

// FindRun returns the run whose id starts with prefix.
func (db *DB) FindRun(prefix string) (models.ReportRun, error) {
	if prefix == "" {
		return models.ReportRun{}, ErrRunNotFound
	}

	rows, err := db.QueryContext(context.Background(), `
		SELECT id, project_id, generated_at, grand_total, output_path
		FROM report_runs
		WHERE substr(id, 1, ?) = ?
		LIMIT 2
	`, len(prefix), prefix)
	if err != nil {
		return models.ReportRun{}, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []models.ReportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return models.ReportRun{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return models.ReportRun{}, err
	}

	switch len(found) {
	case 0:
		return models.ReportRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return found[0], nil
	default:
		return models.ReportRun{}, fmt.Errorf("%w: %s", ErrRunAmbiguous, prefix)
	}
}

// LoadMatrix rebuilds the matrix stored with a run.
func (db *DB) LoadMatrix(runID string) (table.Matrix, error) {
	ctx := context.Background()

	var columnsJSON string
	err := db.QueryRowContext(ctx, "SELECT columns FROM report_runs WHERE id = ?", runID).Scan(&columnsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return table.Matrix{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return table.Matrix{}, fmt.Errorf("failed to query report run: %w", err)
	}

	var m table.Matrix
	if err := json.Unmarshal([]byte(columnsJSON), &m.Columns); err != nil {
		return table.Matrix{}, fmt.Errorf("failed to decode columns: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT row_index, col_index, row_key, value
		FROM report_cells
		WHERE run_id = ?
		ORDER BY row_index, col_index
	`, runID)
	if err != nil {
		return table.Matrix{}, fmt.Errorf("failed to query report cells: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r, c, v int
		var key string
		if err := rows.Scan(&r, &c, &key, &v); err != nil {
			return table.Matrix{}, fmt.Errorf("failed to scan report cell: %w", err)
		}
		for len(m.Rows) <= r {
			m.Rows = append(m.Rows, table.MatrixRow{Values: make([]int, len(m.Columns))})
		}
		m.Rows[r].Key = key
		if c < len(m.Rows[r].Values) {
			m.Rows[r].Values[c] = v
		}
	}

	return m, rows.Err()
}

// GrandTotals returns the grand totals of the latest runs of a project in
// chronological order.
func (db *DB) GrandTotals(projectID string, limit int) ([]float64, error) {
	runs, err := db.ListRuns(projectID, limit)
	if err != nil {
		return nil, err
	}

	totals := make([]float64, len(runs))
	for i, run := range runs {
		totals[len(runs)-1-i] = float64(run.GrandTotal)
	}
	return totals, nil
}

// DeleteRun removes a run and its cells.
func (db *DB) DeleteRun(runID string) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM report_cells WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("failed to delete report cells: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM report_runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete report run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999 -0700 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
