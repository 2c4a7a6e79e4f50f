package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderListPanel renders the left panel with the report list
func (m MainModel) renderListPanel(width, height int) string {
	// Note: list size is set in resizeComponents(), not here during render

	listPanel := m.styles.PanelStyle(!m.detailFocused).
		Width(width - 2).
		Height(height).
		Render(m.listView.Render())

	delegate := m.listView.GetDelegate()
	idHeader := fmt.Sprintf("%*s", delegate.IDWidth, "#")

	// Truncate to width-4 to account for padding (2 chars)
	headerText := fmt.Sprintf("%s │ %s │ %s │ Headline",
		idHeader,
		TruncateAndPad("Modified", ageWidth, false),
		TruncateAndPad("Component", componentWidth, false))
	truncatedHeaderText := Truncate(headerText, width-4, true)
	headerRow := lipgloss.NewStyle().
		Foreground(m.styles.PrimaryBlue).
		Bold(true).
		Width(width-2).
		Padding(0, 1).
		Render(truncatedHeaderText)

	return lipgloss.JoinVertical(lipgloss.Left, headerRow, listPanel)
}
