// Package report assembles the per-subcontractor breakdown and exports it.
package report

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/table"
)

// Source supplies the records a report is built from.
type Source interface {
	table.UserLookup
	Fetch(ctx context.Context, name, projectID string, extra url.Values) (table.Rows, error)
	Organizations(ctx context.Context, projectID string) (models.Directory, error)
}

// Report is a built subcontractor breakdown.
type Report struct {
	GeneratedAt time.Time
	// RowCounts holds the number of fetched records per column. For
	// multi-valued fields it can be below the column sum.
	RowCounts map[string]int
	ProjectID string
	Matrix    table.Matrix
}

// Builder builds reports from a source according to a definition.
type Builder struct {
	source Source
	def    *Definition
	now    func() time.Time
}

// NewBuilder creates a builder.
func NewBuilder(source Source, def *Definition) *Builder {
	return &Builder{source: source, def: def, now: time.Now}
}

// Build fetches every column's records, aggregates them per organization and
// lays them out against the project's organization directory. Any failure
// aborts the report.
func (b *Builder) Build(ctx context.Context, projectID string) (*Report, error) {
	dir, err := b.source.Organizations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizations: %w", err)
	}
	names := dir.Names()

	tables := make([][]table.Count, 0, len(b.def.Columns))
	rowCounts := make(map[string]int, len(b.def.Columns))
	for _, col := range b.def.Columns {
		counts, total, err := b.column(ctx, col, projectID, names)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		tables = append(tables, counts)
		rowCounts[col.Name] = total
		logger.Debug("column aggregated", "column", col.Name, "records", total, "groups", len(counts))
	}

	matrix, err := table.MaterializeReportTable(tables, b.def.ColumnNames(), dir.OrderedNames())
	if err != nil {
		return nil, err
	}

	return &Report{
		ProjectID:   projectID,
		GeneratedAt: b.now(),
		Matrix:      matrix,
		RowCounts:   rowCounts,
	}, nil
}

func (b *Builder) column(ctx context.Context, col Column, projectID string, names map[string]string) ([]table.Count, int, error) {
	rows, err := b.source.Fetch(ctx, col.Endpoint, projectID, nil)
	if err != nil {
		return nil, 0, err
	}

	var grouped table.Grouped
	if col.Mode == ModeUser {
		grouped, err = table.CountByResolvedUserOrganization(ctx, rows, col.Field, b.source)
		if err != nil {
			return nil, 0, err
		}
	} else {
		grouped = table.CountByGroupKey(rows, col.Field)
	}

	counts := grouped.Counts
	if col.After != "" {
		counts = table.MapKeys(counts, AfterSeparator(col.After))
	}
	if col.Translate {
		counts, err = table.TranslateKeysToNames(counts, names)
		if err != nil {
			return nil, 0, err
		}
	}
	return counts, grouped.Total, nil
}

// AfterSeparator returns a key mapper keeping the text after the first sep,
// as in "Иванов И.И. из ООО Ромашка". Keys without sep are kept whole.
func AfterSeparator(sep string) func(string) string {
	return func(key string) string {
		if _, after, found := strings.Cut(key, sep); found {
			return after
		}
		return key
	}
}
