package table

import (
	"fmt"

	"github.com/j-veylop/exon-report/internal/logger"
)

// MatrixRow is one organization line of the report matrix.
type MatrixRow struct {
	Key    string
	Values []int
}

// Matrix is the wide report table: one column per category followed by a
// TotalLabel column, one row per organization followed by a TotalLabel row.
type Matrix struct {
	Columns []string
	Rows    []MatrixRow
}

// Value returns the cell at the given row key and column name.
func (m Matrix) Value(key, column string) (int, bool) {
	col := -1
	for i, c := range m.Columns {
		if c == column {
			col = i
			break
		}
	}
	if col < 0 {
		return 0, false
	}
	for _, row := range m.Rows {
		if row.Key == key {
			return row.Values[col], true
		}
	}
	return 0, false
}

// GrandTotal returns the bottom-right cell, or 0 for an empty matrix.
func (m Matrix) GrandTotal() int {
	if len(m.Rows) == 0 {
		return 0
	}
	last := m.Rows[len(m.Rows)-1]
	if len(last.Values) == 0 {
		return 0
	}
	return last.Values[len(last.Values)-1]
}

// MaterializeReportTable lays grouped tables side by side under columnNames,
// reindexed on fullKeySet: every key appears (zero-filled) and keys outside
// the set are dropped. A TotalLabel column holds row sums and a final
// TotalLabel row holds column sums.
func MaterializeReportTable(tables [][]Count, columnNames []string, fullKeySet []string) (Matrix, error) {
	if len(tables) != len(columnNames) {
		return Matrix{}, fmt.Errorf("got %d tables for %d column names", len(tables), len(columnNames))
	}

	rowIndex := make(map[string]int, len(fullKeySet))
	keys := make([]string, 0, len(fullKeySet))
	for _, key := range fullKeySet {
		if _, dup := rowIndex[key]; dup {
			continue
		}
		rowIndex[key] = len(keys)
		keys = append(keys, key)
	}

	width := len(columnNames) + 1
	rows := make([]MatrixRow, len(keys)+1)
	for i, key := range keys {
		rows[i] = MatrixRow{Key: key, Values: make([]int, width)}
	}
	totals := MatrixRow{Key: TotalLabel, Values: make([]int, width)}

	for col, counts := range tables {
		for _, c := range counts {
			r, ok := rowIndex[c.Key]
			if !ok {
				logger.Debug("dropping key outside report rows", "column", columnNames[col], "key", c.Key, "count", c.N)
				continue
			}
			rows[r].Values[col] += c.N
		}
	}

	for i := range keys {
		sum := 0
		for col := range columnNames {
			sum += rows[i].Values[col]
			totals.Values[col] += rows[i].Values[col]
		}
		rows[i].Values[width-1] = sum
		totals.Values[width-1] += sum
	}
	rows[len(keys)] = totals

	columns := make([]string, 0, width)
	columns = append(columns, columnNames...)
	columns = append(columns, TotalLabel)

	return Matrix{Columns: columns, Rows: rows}, nil
}
