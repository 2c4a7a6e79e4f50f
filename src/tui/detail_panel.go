package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tracekeep/src/report"
)

// renderDetail renders the header facts and stack trace of a report.
func (m MainModel) renderDetail(item Item, maxWidth int) string {
	content := strings.Builder{}

	rep, err := report.ReadFile(item.Entry.Path)
	if errors.Is(err, report.ErrMalformed) {
		fmt.Fprint(&content, lipgloss.NewStyle().Foreground(m.styles.ErrorColor).Render(
			Wrap(report.MalformedHint(m.program, item.Entry.ID), maxWidth)))
		return content.String()
	}
	if err != nil {
		fmt.Fprint(&content, lipgloss.NewStyle().Foreground(m.styles.ErrorColor).Render(Wrap(err.Error(), maxWidth)))
		return content.String()
	}

	if item.Record != nil {
		meta := fmt.Sprintf("Fingerprint: %s | Lines: %d", item.Record.Fingerprint, item.Record.LineCount)
		fmt.Fprintf(&content, "%s\n\n", lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true).Render(Truncate(meta, maxWidth, true)))
	}

	// Header facts
	facts := lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Faint(true)
	for _, line := range rep.Header {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintln(&content, facts.Render(Wrap(CleanLogText(line), maxWidth)))
	}
	fmt.Fprintln(&content)

	fmt.Fprintln(&content, lipgloss.NewStyle().Foreground(m.styles.TextSecondary).Bold(true).Render(report.Marker))
	headline := lipgloss.NewStyle().Foreground(m.styles.ErrorColor).Bold(true)
	frame := lipgloss.NewStyle().Foreground(m.styles.TextPrimary)
	for i, line := range rep.Trace {
		style := frame
		if i == 0 || strings.HasPrefix(line, "Caused by:") {
			style = headline
		}
		fmt.Fprintln(&content, style.Render(Wrap(CleanLogText(line), maxWidth)))
	}

	return content.String()
}

// refreshDetail loads the selected report into the viewport.
func (m *MainModel) refreshDetail() {
	item, ok := m.listView.GetSelectedItem()
	if !ok {
		m.detailViewport.SetContent("")
		return
	}
	// The viewport's width is the max width for the content.
	maxWidth := m.detailViewport.Width - 2
	if maxWidth < 1 {
		maxWidth = 1
	}
	m.detailViewport.SetContent(m.renderDetail(item, maxWidth))
	m.detailViewport.GotoTop()
}

// renderDetailPanel renders the right panel with detail viewport
func (m MainModel) renderDetailPanel(width, height int) string {
	if selectedItem, ok := m.listView.GetSelectedItem(); ok {
		title := selectedItem.Entry.Path
		if c := selectedItem.Component(); c != "" {
			title = fmt.Sprintf("%s (%s)", title, c)
		}
		headerRow := lipgloss.NewStyle().
			Foreground(m.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 1).
			Render(Truncate(title, width-2, true))

		return lipgloss.JoinVertical(lipgloss.Left, headerRow,
			m.styles.PanelStyle(m.detailFocused).
				Width(width-2).
				Height(height).
				Render(m.detailViewport.View()))
	}

	placeholderRow := lipgloss.NewStyle().
		Foreground(m.styles.TextSecondary).
		Padding(0, 1).
		Render(" ")

	emptyStyle := m.styles.PanelStyle(false).
		Width(width-2).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(m.styles.TextSecondary).
		Faint(true)

	return lipgloss.JoinVertical(lipgloss.Left, placeholderRow, emptyStyle.Render("No report selected"))
}
