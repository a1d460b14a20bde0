package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/exon-report/internal/portal"
	"github.com/j-veylop/exon-report/internal/table"
	"github.com/j-veylop/exon-report/internal/ui/components"
)

func newCountCmd(a *app) *cobra.Command {
	var chart bool

	cmd := &cobra.Command{
		Use:   "count <endpoint> <field>",
		Short: "Count one endpoint's records grouped by a field",
		Long: `Fetches the records of one portal endpoint and counts them per
distinct value of field. Nested fields use dots, e.g. authorUser.organizationName.

Endpoints: ` + strings.Join(portal.EndpointNames(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, field := args[0], args[1]
			if _, ok := portal.Lookup(endpoint); !ok {
				return fmt.Errorf("unknown endpoint %q (known: %s)", endpoint, strings.Join(portal.EndpointNames(), ", "))
			}

			project, err := a.manager.ResolveProject(a.project)
			if err != nil {
				return err
			}

			grouped, err := a.manager.CountField(cmd.Context(), endpoint, project, field)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatCounts(grouped, chart))
			return nil
		},
	}

	cmd.Flags().BoolVar(&chart, "chart", false, "Draw a bar chart instead of a list")

	return cmd
}

// formatCounts lists each group and a closing total row. Multi-valued fields
// attribute one record to several groups, so the group sum is noted when it
// differs from the record total.
func formatCounts(g table.Grouped, chart bool) string {
	var b strings.Builder

	rows := table.AppendTotalRow(g.Counts, g.Total)
	if chart && len(g.Counts) > 0 {
		values := make([]int, len(g.Counts))
		labels := make([]string, len(g.Counts))
		for i, c := range g.Counts {
			values[i], labels[i] = c.N, c.Key
		}
		b.WriteString(components.RenderBarChart(values, labels, 40))
		b.WriteString("\n")
		rows = rows[len(g.Counts):]
	}

	width := 0
	for _, c := range rows {
		width = max(width, len([]rune(c.Key)))
	}
	for _, c := range rows {
		pad := width - len([]rune(c.Key))
		b.WriteString(c.Key + strings.Repeat(" ", pad) + "  " + strconv.Itoa(c.N) + "\n")
	}

	if sum := g.Sum(); sum != g.Total {
		fmt.Fprintf(&b, "%d records, %d attributions\n", g.Total, sum)
	}
	return b.String()
}
