package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Header represents the top status bar component.
type Header struct {
	title       string
	page        int
	status      string
	searchQuery string
	searchMode  bool
	styles      *StyleConfig
}

// NewHeader creates a new header with default styles
func NewHeader(title string) Header {
	return NewHeaderWithStyles(title, DefaultStyles())
}

// NewHeaderWithStyles creates a new header with custom styles
func NewHeaderWithStyles(title string, styles *StyleConfig) Header {
	return Header{
		title:  title,
		page:   1,
		styles: styles,
	}
}

// SetPage sets the page number shown in the header.
func (h *Header) SetPage(page int) {
	h.page = page
}

// SetStatus sets a one-line status message. An empty message clears it.
func (h *Header) SetStatus(status string) {
	h.status = status
}

// Status returns the current status message.
func (h Header) Status() string {
	return h.status
}

// SetSearch updates the search state
func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

// Render renders the header
func (h Header) Render(width int) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 2)
	title := titleStyle.Render(h.title)

	pageStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Padding(0, 2)
	page := pageStyle.Render(fmt.Sprintf("Page %d", h.page))

	var searchText string
	if h.searchMode {
		searchText = fmt.Sprintf("Search: %s█", h.searchQuery)
	} else if h.searchQuery != "" {
		searchText = fmt.Sprintf("Search: %s", h.searchQuery)
	} else {
		searchText = "[/] to search"
	}

	searchStyle := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 2)
	if h.searchMode {
		searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
	}
	search := searchStyle.Render(searchText)

	leftSection := lipgloss.JoinHorizontal(lipgloss.Left, title, page, search)

	if h.status != "" {
		remaining := width - lipgloss.Width(leftSection) - 4
		if remaining > 0 {
			status := lipgloss.NewStyle().
				Foreground(h.styles.ErrorColor).
				Padding(0, 2).
				Render(Truncate(h.status, remaining, true))
			leftSection = lipgloss.JoinHorizontal(lipgloss.Left, leftSection, status)
		}
	}

	headerStyle := lipgloss.NewStyle().
		Background(h.styles.DarkBackground).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width)

	spacerWidth := width - lipgloss.Width(leftSection)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Left, leftSection, spacer)

	return headerStyle.Render(content)
}
