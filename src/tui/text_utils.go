package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// VisualWidth is the number of terminal cells s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate trims s to at most maxLen cells. With ellipsis set and room for
// it, the cut is marked with "...".
func Truncate(s string, maxLen int, ellipsis bool) string {
	s = strings.TrimSpace(s)
	switch {
	case maxLen <= 0:
		return ""
	case VisualWidth(s) <= maxLen:
		return s
	case ellipsis && maxLen > 3:
		return runewidth.Truncate(s, maxLen, "...")
	default:
		return runewidth.Truncate(s, maxLen, "")
	}
}

// TruncateAndPad returns s fitted to exactly width cells, for report list columns.
func TruncateAndPad(s string, width int, ellipsis bool) string {
	s = Truncate(s, width, ellipsis)
	if pad := width - VisualWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// Wrap fits text into rows of at most width cells, breaking on spaces.
// Tokens wider than a row, such as long qualified frame names, are split
// across rows.
func Wrap(text string, width int) string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return text
	}

	var rows []string
	var row strings.Builder
	rowWidth := 0
	newRow := func() {
		rows = append(rows, row.String())
		row.Reset()
		rowWidth = 0
	}

	for _, word := range words {
		w := VisualWidth(word)
		switch {
		case w > width:
			if rowWidth > 0 {
				newRow()
			}
			chunks := splitWidth(word, width)
			rows = append(rows, chunks...)
		case rowWidth == 0:
			row.WriteString(word)
			rowWidth = w
		case rowWidth+1+w <= width:
			row.WriteByte(' ')
			row.WriteString(word)
			rowWidth += 1 + w
		default:
			newRow()
			row.WriteString(word)
			rowWidth = w
		}
	}
	if rowWidth > 0 {
		newRow()
	}
	return strings.Join(rows, "\n")
}

// splitWidth cuts s into pieces no wider than width cells.
func splitWidth(s string, width int) []string {
	var pieces []string
	var piece strings.Builder
	pieceWidth := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if pieceWidth+rw > width && pieceWidth > 0 {
			pieces = append(pieces, piece.String())
			piece.Reset()
			pieceWidth = 0
		}
		piece.WriteRune(r)
		pieceWidth += rw
	}
	if pieceWidth > 0 {
		pieces = append(pieces, piece.String())
	}
	return pieces
}

// CleanLogText strips terminal escape sequences and control whitespace so a
// captured console line renders on a single row.
func CleanLogText(s string) string {
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", "    ")
	return strings.TrimSpace(s)
}
