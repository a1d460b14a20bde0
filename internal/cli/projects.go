package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/models"
	"github.com/j-veylop/exon-report/internal/ui/styles"
)

func newProjectsCmd(a *app) *cobra.Command {
	var city, category, status string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects visible to the portal user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := models.ProjectFilter{
				City:     optional(city),
				Category: optional(category),
				Status:   optional(status),
			}

			projects, err := a.manager.Projects(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			fmt.Fprintln(out, renderProjects(projects))
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "Only projects in this city")
	cmd.Flags().StringVar(&category, "category", "", "Only projects of this category")
	cmd.Flags().StringVar(&status, "status", "", "Only projects with this status")

	return cmd
}

func renderProjects(projects []models.Project) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, p.Status, p.City})
	}
	return ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Subtle)).
		Headers("ID", "Проект", "Статус", "Город").
		Rows(rows...).
		String()
}

// optional maps an unset flag to a JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
