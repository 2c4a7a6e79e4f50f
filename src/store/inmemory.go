package store

import (
	"context"
	"sync"

	"tracekeep/src/contracts"
)

// InMemoryIndex is a thread-safe in-memory implementation of Index.
// Used when no database is configured and in tests.
type InMemoryIndex struct {
	mu          sync.RWMutex
	order       []string                          // file names in first-save order
	byFile      map[string]contracts.ReportRecord // file_name -> record
	byComponent map[string][]string               // component -> file names
}

// NewInMemoryIndex creates a new in-memory index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{
		byFile:      make(map[string]contracts.ReportRecord),
		byComponent: make(map[string][]string),
	}
}

// Save stores a record, indexed by file name and component.
func (s *InMemoryIndex) Save(ctx context.Context, record contracts.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byFile[record.FileName]; ok {
		s.byComponent[old.Component] = remove(s.byComponent[old.Component], record.FileName)
	} else {
		s.order = append(s.order, record.FileName)
	}

	s.byFile[record.FileName] = record
	s.byComponent[record.Component] = append(s.byComponent[record.Component], record.FileName)
	return nil
}

// Get retrieves the record for a report file name.
func (s *InMemoryIndex) Get(ctx context.Context, fileName string) (contracts.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byFile[fileName]
	if !ok {
		return contracts.ReportRecord{}, ErrNotFound{Name: fileName}
	}
	return record, nil
}

// ListByComponent returns the records for component in save order.
func (s *InMemoryIndex) ListByComponent(ctx context.Context, component string) ([]contracts.ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.byComponent[component]
	records := make([]contracts.ReportRecord, 0, len(names))
	for _, name := range s.order {
		if contains(names, name) {
			records = append(records, s.byFile[name])
		}
	}
	return records, nil
}

// Close is a no-op for the in-memory index.
func (s *InMemoryIndex) Close() error {
	return nil
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
