package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorAccent  = lipgloss.Color("#89b4fa")
	colorSubtext = lipgloss.Color("#a6adc8")
	colorMuted   = lipgloss.Color("#6c7086")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSubtext).
				Bold(true).
				Padding(0, 1)

	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	disabledStyle = cellStyle.Foreground(colorMuted)
)

// renderTable draws rows under headers. Columns listed in muted are dimmed.
func renderTable(headers []string, rows [][]string, muted map[int]bool) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case muted[col]:
				return disabledStyle
			default:
				return cellStyle
			}
		}).
		String()
}
