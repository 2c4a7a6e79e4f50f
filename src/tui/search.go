package tui

import (
	"strings"
)

// applyFilter narrows the current page to reports matching the search query.
func (m *MainModel) applyFilter() {
	filtered := m.items

	if m.searchQuery != "" {
		filtered = nil
		query := strings.ToLower(m.searchQuery)
		for _, item := range m.items {
			// Search in headline, component, file name
			if strings.Contains(strings.ToLower(item.Headline), query) ||
				strings.Contains(strings.ToLower(item.Component()), query) ||
				strings.Contains(strings.ToLower(item.Entry.Name), query) {
				filtered = append(filtered, item)
				continue
			}
			if item.Record != nil && strings.Contains(strings.ToLower(item.Record.Fingerprint), query) {
				filtered = append(filtered, item)
			}
		}
	}

	m.listView.SetItems(filtered)
	m.refreshDetail()
}
