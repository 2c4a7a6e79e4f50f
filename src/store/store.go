// Package store persists stack trace reports.
//
// FileStore owns the numbered report files themselves. Index keeps the
// records announced for those files so they can be looked up by component.
package store

import (
	"context"
	"fmt"

	"tracekeep/src/contracts"
)

// Index defines the interface for persisting announced report records.
type Index interface {
	// Save records an announced report. Saving the same file name twice replaces it.
	Save(ctx context.Context, record contracts.ReportRecord) error

	// Get returns the record for a report file name.
	Get(ctx context.Context, fileName string) (contracts.ReportRecord, error)

	// ListByComponent returns records attributed to component, oldest first.
	// An empty component lists records that were not attributed.
	ListByComponent(ctx context.Context, component string) ([]contracts.ReportRecord, error)

	// Close closes the index connection
	Close() error
}

// ErrNotFound is returned when a report or record does not exist.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("report not found: %s", e.Name)
}
