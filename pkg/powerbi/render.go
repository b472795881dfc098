package powerbi

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// maxRenderRows caps how many rows a rendered table shows.
const maxRenderRows = 20

var headerStyle = lipgloss.NewStyle().Bold(true)

// Render formats a query result for the terminal: one table per result set,
// capped at maxRenderRows rows each.
func Render(result *QueryResult) string {
	var out []string
	for _, set := range result.Results {
		for _, t := range set.Tables {
			out = append(out, RenderTable(t))
		}
	}
	if len(out) == 0 {
		return "(no rows returned)"
	}
	return strings.Join(out, "\n\n")
}

// RenderTable formats one tabular result.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 {
		return "(no rows returned)"
	}

	shown := t.Rows
	if len(shown) > maxRenderRows {
		shown = shown[:maxRenderRows]
	}

	rows := make([][]string, 0, len(shown))
	for _, row := range shown {
		cells := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cells = append(cells, formatCell(row[col]))
		}
		rows = append(rows, cells)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(t.Columns...).
		Rows(rows...)

	rendered := tbl.Render()
	rendered += fmt.Sprintf("\n%d row(s)", len(t.Rows))
	if len(t.Rows) > maxRenderRows {
		rendered += fmt.Sprintf("   ... (%d more not shown)", len(t.Rows)-maxRenderRows)
	}
	return rendered
}

func formatCell(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
