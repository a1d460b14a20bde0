package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/table"
)

const (
	reportSheet  = "Отчет"
	summarySheet = "Сводка"
	keyHeader    = "Организация"
)

// DefaultFileName names a report generated at t.
func DefaultFileName(t time.Time) string {
	return "report_" + t.Format("2006-01-02_15-04-05") + ".xlsx"
}

// WriteXLSX saves the report as a workbook with the matrix on the first sheet
// and per-column record counts on the second.
func WriteXLSX(path string, r *Report) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Error("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeMatrixSheet(f, r.Matrix); err != nil {
		return err
	}
	if err := writeSummarySheet(f, r); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeMatrixSheet(f *excelize.File, m table.Matrix) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	header := make([]any, 0, len(m.Columns)+1)
	header = append(header, keyHeader)
	for _, c := range m.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range m.Rows {
		values := make([]any, 0, len(row.Values)+1)
		values = append(values, row.Key)
		for _, v := range row.Values {
			values = append(values, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %q: %w", row.Key, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(m.Columns) + 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if len(m.Rows) > 0 {
		last := strconv.Itoa(len(m.Rows) + 1)
		if err := f.SetCellStyle(reportSheet, "A"+last, lastCol+last, bold); err != nil {
			return fmt.Errorf("failed to style totals: %w", err)
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "A", 40); err != nil {
		return err
	}
	if len(m.Columns) > 0 {
		if err := f.SetColWidth(reportSheet, "B", lastCol, 18); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, r *Report) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	rows := [][]any{
		{"Проект", r.ProjectID},
		{"Сформирован", r.GeneratedAt.Format(time.RFC3339)},
		{"Категория", "Записей"},
	}
	for _, col := range r.Matrix.Columns {
		if n, ok := r.RowCounts[col]; ok {
			rows = append(rows, []any{col, n})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 30)
}

// WriteCSV writes the report matrix with a header row.
func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)

	header := append([]string{keyHeader}, r.Matrix.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range r.Matrix.Rows {
		record := make([]string, 0, len(row.Values)+1)
		record = append(record, row.Key)
		for _, v := range row.Values {
			record = append(record, strconv.Itoa(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
