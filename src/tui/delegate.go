package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	// listRenderingOverhead accounts for padding added by bubbles/list and panel borders.
	// Breakdown: panel border (2) + list internal padding/margins (8) = 10 chars total.
	listRenderingOverhead = 10

	ageWidth       = 14
	componentWidth = 12
	unknownLabel   = "-"
)

// Delegate renders reports as table rows.
type Delegate struct {
	IDWidth int
	styles  *StyleConfig
	now     func() time.Time
}

// NewDelegate creates a new report table delegate with default styles
func NewDelegate() Delegate {
	return NewDelegateWithStyles(DefaultStyles())
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{
		IDWidth: 2,
		styles:  styles,
		now:     time.Now,
	}
}

// SetIDWidth sizes the id column for the largest id on screen.
func (d *Delegate) SetIDWidth(maxID uint64) {
	d.IDWidth = len(fmt.Sprintf("%d", maxID))
	if d.IDWidth < 2 {
		d.IDWidth = 2
	}
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	idCol := fmt.Sprintf("%*d", d.IDWidth, entry.Entry.ID)
	ageCol := TruncateAndPad(humanize.RelTime(entry.Entry.ModTime, d.now(), "ago", "from now"), ageWidth, false)

	component := entry.Component()
	if component == "" {
		component = unknownLabel
	}
	compCol := TruncateAndPad(component, componentWidth, true)

	// Fixed columns: id + age + component + separators (9)
	fixedWidth := d.IDWidth + ageWidth + componentWidth + 9
	availableWidth := m.Width() - fixedWidth - listRenderingOverhead

	var headline string
	if availableWidth > 0 {
		headline = TruncateAndPad(CleanLogText(entry.Headline), availableWidth, true)
	}

	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	compStyle := lipgloss.NewStyle().Foreground(d.styles.ComponentColor(entry.Component()))
	if isSelected {
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
		compStyle = compStyle.Bold(true).Background(d.styles.SelectedColor)
	}

	sep := style.Render(" │ ")
	fmt.Fprint(w, style.Render(idCol)+sep+style.Render(ageCol)+sep+compStyle.Render(compCol)+sep+style.Render(headline))
}
