package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/exon-report/internal/ui/components"
	"github.com/j-veylop/exon-report/internal/ui/styles"
)

const chartHeight = 8

// View renders the viewer.
func (m *Model) View() string {
	if m.loading {
		return components.RenderSpinnerCentered(m.spinner, max(m.width, 30), max(m.height, 3))
	}
	if m.err != nil {
		return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.ErrorTextStyle.Render("Ошибка: "+m.err.Error()),
			"",
			m.renderHelpLine(),
		))
	}

	sections := []string{m.renderTitle(), styles.CardStyle.Render(m.table.View())}
	if m.showChart {
		sections = append(sections, m.renderCharts())
	}
	sections = append(sections, m.renderHelpLine())

	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := m.snapshot.Title
	if title == "" {
		title = "Отчет по субподрядчикам"
	}

	line := styles.TitleStyle.MarginBottom(0).Render(title)
	total := m.snapshot.Matrix.GrandTotal()
	line += "  " + styles.CountStyle(total).Render(fmt.Sprintf("Итого: %d", total))
	if spark := components.RenderSparkline(m.snapshot.Totals, 20); spark != "" {
		line += "  " + styles.HelpStyle.Render(spark)
	}
	return line + "\n"
}

func (m *Model) renderCharts() string {
	mx := m.snapshot.Matrix
	width := max(m.width-10, 30)

	var sections []string
	if len(mx.Rows) > 0 && len(mx.Columns) > 1 {
		totals := mx.Rows[len(mx.Rows)-1].Values
		sections = append(sections,
			styles.SubTitleStyle.Render("По категориям"),
			components.RenderBarChart(totals[:len(totals)-1], mx.Columns[:len(mx.Columns)-1], width),
			"",
		)
	}
	sections = append(sections,
		styles.SubTitleStyle.Render("История"),
		components.RenderTotalsChart(m.snapshot.Totals, width-10, chartHeight),
	)
	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHelpLine() string {
	parts := make([]string, 0, len(m.ShortHelp()))
	for _, b := range m.ShortHelp() {
		parts = append(parts, styles.HelpKeyStyle.Render(b.Help().Key)+" "+styles.HelpDescStyle.Render(b.Help().Desc))
	}
	return strings.Join(parts, styles.HelpSeparatorStyle.Render(" • "))
}
