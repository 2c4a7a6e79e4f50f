package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"
)

const (
	// ReportExt is the extension of every numbered report file.
	ReportExt = ".txt"

	// PageSize is the number of entries returned by Page.
	PageSize = 10
)

// reportNamePattern matches numbered report files: up to 10 digits plus ".txt".
var reportNamePattern = regexp.MustCompile(`^[0-9]{1,10}\.txt$`)

// ErrNoPage is returned by Page when the requested page starts before the first report.
var ErrNoPage = errors.New("no such page")

// NoPageMessage is shown when a listing asks for a page past the last one.
func NoPageMessage(page int) string {
	return fmt.Sprintf("There aren't %d pages of reports. Congratulations!", page)
}

// ErrInvalidRef is returned by Resolve for references that are neither an id nor "latest".
var ErrInvalidRef = errors.New("report reference must be a non-negative id or \"latest\"")

// LatestRef resolves to the newest report.
const LatestRef = "latest"

// Entry describes one numbered report file.
type Entry struct {
	ID      uint64
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// FileStore owns a directory of numbered report files.
// IDs handed out by Allocate are strictly increasing for the life of the store.
// Only one process should own a directory; concurrent processes can race on IDs.
type FileStore struct {
	dir string

	mu     sync.Mutex
	nextID uint64
}

// NewFileStore opens dir (creating it if needed) and recovers the next ID
// from the highest numbered report already present.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	s := &FileStore{dir: dir}
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		s.nextID = entries[len(entries)-1].ID + 1
	}
	return s, nil
}

// Dir returns the directory the store owns.
func (s *FileStore) Dir() string {
	return s.dir
}

// NextID returns the ID the next Allocate call will try.
func (s *FileStore) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// Allocate exclusively creates the next numbered report file and returns it open for writing.
// The counter advances even when creation fails, so a contested name is never retried.
func (s *FileStore) Allocate() (*os.File, error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	path := filepath.Join(s.dir, FileName(id))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 -- path is built from the store directory and a numeric ID
	if err != nil {
		return nil, fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	return f, nil
}

// Get resolves an existing report file by its exact base name.
func (s *FileStore) Get(name string) (Entry, error) {
	if name == "" || filepath.Base(name) != name {
		return Entry{}, ErrNotFound{Name: name}
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, ErrNotFound{Name: name}
		}
		return Entry{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Entry{}, ErrNotFound{Name: name}
	}

	entry := Entry{
		Name:    name,
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	if id, ok := parseReportName(name); ok {
		entry.ID = id
	}
	return entry, nil
}

// GetByID resolves the report file "<id>.txt".
func (s *FileStore) GetByID(id uint64) (Entry, error) {
	return s.Get(FileName(id))
}

// Entries scans the directory and returns every numbered report ordered by ID ascending.
func (s *FileStore) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		id, ok := parseReportName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			ID:      id,
			Name:    de.Name(),
			Path:    filepath.Join(s.dir, de.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ID != entries[j].ID {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Page returns up to PageSize entries, newest first.
// Page 1 (or anything below it) is the newest block; each following page is the next older block.
// ErrNoPage is returned when the page would start before the oldest report.
func (s *FileStore) Page(n int) ([]Entry, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	last := len(entries) - 1
	if n > 1 {
		if n-1 > len(entries)/PageSize {
			return nil, ErrNoPage
		}
		last = len(entries) - PageSize*(n-1) - 1
	}
	if last < 0 {
		return nil, ErrNoPage
	}

	count := PageSize
	if last < PageSize {
		count = last + 1
	}

	page := make([]Entry, count)
	for i := 0; i < count; i++ {
		page[i] = entries[last-i]
	}
	return page, nil
}

// Latest returns the newest report.
func (s *FileStore) Latest() (Entry, error) {
	page, err := s.Page(1)
	if err != nil {
		if errors.Is(err, ErrNoPage) {
			return Entry{}, ErrNotFound{Name: "latest"}
		}
		return Entry{}, err
	}
	return page[0], nil
}

// Resolve finds a report by decimal id or LatestRef.
func (s *FileStore) Resolve(ref string) (Entry, error) {
	if ref == LatestRef {
		return s.Latest()
	}
	id, ok := parseReportName(ref + ReportExt)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return s.GetByID(id)
}

// FileName returns the report file name for id.
func FileName(id uint64) string {
	return strconv.FormatUint(id, 10) + ReportExt
}

func parseReportName(name string) (uint64, bool) {
	if !reportNamePattern.MatchString(name) {
		return 0, false
	}
	id, err := strconv.ParseUint(name[:len(name)-len(ReportExt)], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
