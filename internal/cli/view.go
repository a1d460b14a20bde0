package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/logger"
	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/ui/viewer"
)

const viewerHistoryLimit = 30

func newViewCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse a stored report in the terminal",
		Long:  "Opens the latest report of the project, or the run given by --run, in an interactive table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project := a.projectOrAll()

			// Resolve once up front so a bad id fails before the screen switches.
			if _, err := a.findRun(runID, project); err != nil {
				return err
			}

			model := viewer.New(func() (viewer.Snapshot, error) {
				return a.snapshot(runID, project)
			})
			if err := model.Watch(a.manager.Database().Path()); err != nil {
				logger.Warn("history changes will not be picked up", "error", err)
			}
			defer func() {
				if err := model.Close(); err != nil {
					logger.Warn("failed to stop history watcher", "error", err)
				}
			}()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("viewer failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&runID, "run", "r", "", "Run id or unique id prefix (default latest)")

	return cmd
}

func (a *app) findRun(runID, project string) (models.ReportRun, error) {
	if runID != "" {
		return a.manager.Database().FindRun(runID)
	}
	return a.manager.LatestRun(project)
}

// snapshot loads a run with the grand totals of its project for the chart.
func (a *app) snapshot(runID, project string) (viewer.Snapshot, error) {
	run, err := a.findRun(runID, project)
	if err != nil {
		return viewer.Snapshot{}, err
	}

	db := a.manager.Database()
	m, err := db.LoadMatrix(run.ID)
	if err != nil {
		return viewer.Snapshot{}, err
	}
	totals, err := db.GrandTotals(run.ProjectID, viewerHistoryLimit)
	if err != nil {
		return viewer.Snapshot{}, err
	}

	return viewer.Snapshot{
		Title:  fmt.Sprintf("Проект %s · %s", run.ProjectID, run.GeneratedAt.Local().Format("2006-01-02 15:04")),
		Matrix: m,
		Totals: totals,
	}, nil
}
