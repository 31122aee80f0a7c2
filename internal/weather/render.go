package weather

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	missStyle   = cellStyle.Foreground(lipgloss.Color("240"))
)

// RenderTable draws reports as a bordered grid with one row per city.
func RenderTable(reports []Report) string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = r.Row()
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(true).
		Headers(Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(reports) && col > 0 && reports[row].Status != StatusOK {
				return missStyle
			}
			return cellStyle
		})

	return t.String()
}
