package components

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/pylearn/internal/ui/theme"
)

// Table renders rows under a bold header with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// KV is one line of a key/value listing.
type KV struct {
	Key   string
	Value string
}

// KeyValues renders aligned "key  value" lines.
func KeyValues(items []KV) string {
	width := 0
	for _, it := range items {
		width = max(width, lipgloss.Width(it.Key))
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(theme.Label.Render(it.Key + strings.Repeat(" ", width-lipgloss.Width(it.Key))))
		b.WriteString("  ")
		b.WriteString(theme.Value.Render(it.Value))
	}
	return b.String()
}
