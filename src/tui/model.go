// Package tui provides the terminal report browser.
// It pages through the report directory newest first and shows the selected
// report's header and stack trace side by side with the list.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"tracekeep/src/patterns"
	"tracekeep/src/report"
	"tracekeep/src/store"
)

const indexLookupTimeout = 2 * time.Second

// Source supplies pages of reports, newest first.
type Source interface {
	Page(n int) ([]store.Entry, error)
}

// Options configures the browser. Zero values fall back to defaults.
type Options struct {
	// Program is the command name used in hints such as the malformed-file message.
	Program string

	// Index enriches list rows with announced records. Optional.
	Index store.Index

	Styles *StyleConfig
}

// pageLoadedMsg carries the result of loading one page.
type pageLoadedMsg struct {
	page  int
	items []Item
	err   error
}

// MainModel is the Bubble Tea model for the report browser.
type MainModel struct {
	source  Source
	index   store.Index
	program string
	styles  *StyleConfig

	header         Header
	listView       View
	detailViewport viewport.Model

	items         []Item
	page          int
	searchQuery   string
	searchMode    bool
	detailFocused bool

	width  int
	height int
	ready  bool
}

// NewMainModel creates a browser over source.
func NewMainModel(source Source, opts Options) MainModel {
	if opts.Program == "" {
		opts.Program = "tracekeep"
	}
	if opts.Styles == nil {
		opts.Styles = DefaultStyles()
	}

	return MainModel{
		source:         source,
		index:          opts.Index,
		program:        opts.Program,
		styles:         opts.Styles,
		header:         NewHeaderWithStyles(opts.Program+" reports", opts.Styles),
		listView:       NewView(opts.Styles),
		detailViewport: viewport.New(0, 0),
		page:           1,
	}
}

// Init loads the first page.
func (m MainModel) Init() tea.Cmd {
	return m.loadPage(1)
}

// Page returns the page currently shown.
func (m MainModel) Page() int {
	return m.page
}

// loadPage reads page n from the source off the UI goroutine.
func (m MainModel) loadPage(n int) tea.Cmd {
	source, index := m.source, m.index
	return func() tea.Msg {
		entries, err := source.Page(n)
		if err != nil {
			return pageLoadedMsg{page: n, err: err}
		}
		return pageLoadedMsg{page: n, items: buildItems(entries, index)}
	}
}

func buildItems(entries []store.Entry, index store.Index) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		item := Item{Entry: e}
		if index != nil {
			ctx, cancel := context.WithTimeout(context.Background(), indexLookupTimeout)
			if rec, err := index.Get(ctx, e.Name); err == nil {
				item.Record = &rec
				item.Headline = rec.Headline
			}
			cancel()
		}
		if item.Headline == "" {
			if rep, err := report.ReadFile(e.Path); err == nil {
				item.Headline = patterns.Headline(rep.Trace)
			}
		}
		items = append(items, item)
	}
	return items
}

// Update handles messages and updates the model state.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg), nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKey(msg), nil
		}
		if m.detailFocused {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}

	return m, nil
}

func (m MainModel) handlePageLoaded(msg pageLoadedMsg) MainModel {
	switch {
	case errors.Is(msg.err, store.ErrNoPage) && msg.page == 1:
		m.page = 1
		m.items = nil
		m.header.SetStatus("No reports yet")
	case errors.Is(msg.err, store.ErrNoPage):
		// Stay on the current page.
		m.header.SetStatus(store.NoPageMessage(msg.page))
		return m
	case msg.err != nil:
		m.header.SetStatus(msg.err.Error())
		return m
	default:
		m.page = msg.page
		m.items = msg.items
		m.header.SetStatus("")
	}
	m.header.SetPage(m.page)
	m.applyFilter()
	return m
}

func (m MainModel) handleSearchKey(msg tea.KeyMsg) MainModel {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchQuery = ""
		m.searchMode = false
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	}
	m.header.SetSearch(m.searchQuery, m.searchMode)
	m.applyFilter()
	return m
}

func (m MainModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "backspace":
		m.detailFocused = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m MainModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "right":
		return m, m.loadPage(m.page + 1)
	case "p", "left":
		if m.page > 1 {
			return m, m.loadPage(m.page - 1)
		}
		return m, nil
	case "r":
		return m, m.loadPage(m.page)
	case "/":
		m.searchMode = true
		m.header.SetSearch(m.searchQuery, true)
		return m, nil
	case "enter":
		if _, ok := m.listView.GetSelectedItem(); ok {
			m.detailFocused = true
		}
		return m, nil
	case "esc":
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.header.SetSearch("", false)
			m.applyFilter()
		}
		return m, nil
	}

	before, _ := m.listView.GetSelectedItem()
	var cmd tea.Cmd
	m.listView, cmd = m.listView.Update(msg)
	if after, ok := m.listView.GetSelectedItem(); ok && after.Entry.Path != before.Entry.Path {
		m.refreshDetail()
	}
	return m, cmd
}
