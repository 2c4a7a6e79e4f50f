package tui

import (
	"tracekeep/src/contracts"
	"tracekeep/src/store"
)

// Item represents a report in the browser list.
// It wraps the report file and, when one was announced, its index record.
type Item struct {
	Entry    store.Entry
	Record   *contracts.ReportRecord
	Headline string
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Headline }

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return i.Entry.Name }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string { return i.Component() }

// Component returns the component the report was attributed to, if any.
func (i Item) Component() string {
	if i.Record == nil {
		return ""
	}
	return i.Record.Component
}
