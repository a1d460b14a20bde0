package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/services"
	"github.com/j-veylop/exon-report/internal/table"
	"github.com/j-veylop/exon-report/internal/ui/styles"
)

func newReportCmd(a *app) *cobra.Command {
	var opts services.ReportOptions
	var quiet bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the subcontractor report for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := a.manager.ResolveProject(a.project)
			if err != nil {
				return err
			}

			res, err := a.manager.GenerateReport(cmd.Context(), project, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintln(out, renderMatrix(res.Report.Matrix))
			}
			fmt.Fprintf(out, "Report saved to %s\n", res.Path)
			if res.RunID != "" {
				fmt.Fprintf(out, "History run %s\n", res.RunID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Output file (default report_<timestamp>.xlsx in $REPORT_DIR)")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "Write CSV instead of XLSX")
	cmd.Flags().BoolVar(&opts.Notify, "notify", false, "Show a desktop notification when done")
	cmd.Flags().BoolVar(&opts.SkipHistory, "no-history", false, "Do not record the run in history")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the table")

	return cmd
}

// renderMatrix draws the report as a bordered terminal table.
func renderMatrix(m table.Matrix) string {
	headers := append([]string{"Организация"}, m.Columns...)
	rows := make([][]string, 0, len(m.Rows))
	for _, r := range m.Rows {
		row := make([]string, 0, len(r.Values)+1)
		row = append(row, r.Key)
		for _, v := range r.Values {
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, row)
	}

	totalRow := len(rows) - 1
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == ltable.HeaderRow || row == totalRow {
				s = s.Bold(true)
			}
			if col > 0 {
				s = s.Align(lipgloss.Right)
			}
			return s
		}).
		String()
}
