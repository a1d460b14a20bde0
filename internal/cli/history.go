package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/ui/components"
	"github.com/j-veylop/exon-report/internal/ui/styles"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var chart bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project := a.projectOrAll()
			db := a.manager.Database()

			runs, err := db.ListRuns(project, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No reports found.")
				return nil
			}

			fmt.Fprintln(out, renderRuns(runs))

			if chart && project != "" {
				totals, err := db.GrandTotals(project, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, components.RenderTotalsChart(totals, 60, 8))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&chart, "chart", true, "Plot grand totals (needs a project)")

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <run-id>",
		Short: "Delete a run from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := a.manager.Database()
			run, err := db.FindRun(args[0])
			if err != nil {
				return err
			}
			if err := db.DeleteRun(run.ID); err != nil {
				return err
			}
			if err := db.Vacuum(); err != nil {
				logger.Warn("failed to compact history database", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
			return nil
		},
	})

	return cmd
}

func renderRuns(runs []models.ReportRun) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.GeneratedAt.Local().Format("2006-01-02 15:04"),
			r.ProjectID,
			fmt.Sprintf("%d", r.GrandTotal),
			shortID(r.ID),
			r.OutputPath,
		})
	}

	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("Сформирован", "Проект", "Итого", "ID", "Файл").
		Rows(rows...).
		String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
