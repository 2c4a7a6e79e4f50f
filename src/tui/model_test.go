package tui

import (
	"context"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracekeep/src/contracts"
	"tracekeep/src/report"
	"tracekeep/src/store"
)

func writeReport(t *testing.T, fs *store.FileStore, lines ...string) store.Entry {
	t.Helper()
	f, err := fs.Allocate()
	require.NoError(t, err)
	require.NoError(t, report.Write(f, nil, lines))
	require.NoError(t, f.Close())

	entries, err := fs.Entries()
	require.NoError(t, err)
	return entries[len(entries)-1]
}

// drive runs cmd and feeds its message back into the model.
func drive(t *testing.T, m MainModel, cmd tea.Cmd) MainModel {
	t.Helper()
	if cmd == nil {
		return m
	}
	updated, _ := m.Update(cmd())
	return updated.(MainModel)
}

func press(m MainModel, key string) (MainModel, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(MainModel), cmd
}

func newTestModel(t *testing.T, fs *store.FileStore, index store.Index) MainModel {
	t.Helper()
	m := NewMainModel(fs, Options{Program: "tracekeep", Index: index})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return drive(t, updated.(MainModel), m.Init())
}

func TestMainModel_NotReadyBeforeResize(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := NewMainModel(fs, Options{})
	assert.Contains(t, m.View(), "Initializing")
}

func TestMainModel_EmptyDirectory(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := newTestModel(t, fs, nil)
	assert.Equal(t, "No reports yet", m.header.Status())
	assert.Contains(t, m.View(), "No report selected")
}

func TestMainModel_ListsNewestFirst(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeReport(t, fs, "java.lang.Error: first", "at com.app.A.a(A.java:1)")
	writeReport(t, fs, "java.io.IOException: second", "at com.app.B.b(B.java:2)")

	m := newTestModel(t, fs, nil)
	items := m.listView.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1.txt", items[0].Entry.Name)
	assert.Equal(t, "java.io.IOException: second", items[0].Headline)
	assert.Equal(t, "java.lang.Error: first", items[1].Headline)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "java.io.IOException: second")
	assert.Contains(t, view, "at com.app.B.b(B.java:2)", "detail shows the selected trace")
	assert.Contains(t, view, "Page 1")
}

func TestMainModel_SelectionUpdatesDetail(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeReport(t, fs, "java.lang.Error: older", "at com.app.Old.run(Old.java:3)")
	writeReport(t, fs, "java.lang.Error: newer", "at com.app.New.run(New.java:4)")

	m := newTestModel(t, fs, nil)
	m, _ = press(m, "down")

	selected, ok := m.listView.GetSelectedItem()
	require.True(t, ok)
	assert.Equal(t, "0.txt", selected.Entry.Name)
	assert.Contains(t, ansi.Strip(m.View()), "at com.app.Old.run(Old.java:3)")
}

func TestMainModel_PagePastEnd(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		writeReport(t, fs, "java.lang.Error: boom")
	}

	m := newTestModel(t, fs, nil)
	require.Len(t, m.listView.Items(), 10)

	m, cmd := press(m, "n")
	m = drive(t, m, cmd)
	assert.Equal(t, 2, m.Page())
	require.Len(t, m.listView.Items(), 2)
	assert.Equal(t, "1.txt", m.listView.Items()[0].Entry.Name)

	m, cmd = press(m, "n")
	m = drive(t, m, cmd)
	assert.Equal(t, 2, m.Page(), "page stays put past the end")
	assert.Equal(t, "There aren't 3 pages of reports. Congratulations!", m.header.Status())

	m, cmd = press(m, "p")
	m = drive(t, m, cmd)
	assert.Equal(t, 1, m.Page())
	assert.Empty(t, m.header.Status())

	_, cmd = press(m, "p")
	assert.Nil(t, cmd, "no page before the first")
}

func TestMainModel_MalformedReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/4.txt", []byte("no marker here\n"), 0o644))
	fs, err := store.NewFileStore(dir)
	require.NoError(t, err)

	m := newTestModel(t, fs, nil)
	detail := ansi.Strip(m.detailViewport.View())
	assert.Contains(t, strings.Join(strings.Fields(detail), " "), "Run `tracekeep publish 4`")
}

func TestMainModel_IndexEnrichesRows(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	entry := writeReport(t, fs, "java.lang.Error: boom", "at com.shop.Cart.add(Cart.java:9)")

	index := store.NewInMemoryIndex()
	require.NoError(t, index.Save(context.Background(), contracts.ReportRecord{
		FileName:    entry.Name,
		FilePath:    entry.Path,
		Component:   "shop",
		Headline:    "java.lang.Error: boom",
		Fingerprint: "0123456789abcdef",
		LineCount:   2,
	}))

	m := newTestModel(t, fs, index)
	items := m.listView.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "shop", items[0].Component())

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "shop")
	assert.Contains(t, view, "Fingerprint: 0123456789abcdef")
}

func TestMainModel_Search(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeReport(t, fs, "java.lang.IllegalStateException: closed")
	writeReport(t, fs, "java.io.IOException: reset")

	m := newTestModel(t, fs, nil)
	m, _ = press(m, "/")
	for _, r := range "ioexc" {
		m, _ = press(m, string(r))
	}
	m, _ = press(m, "enter")

	items := m.listView.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "java.io.IOException: reset", items[0].Headline)

	m, _ = press(m, "esc")
	assert.Len(t, m.listView.Items(), 2)
}

func TestMainModel_DetailFocus(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	writeReport(t, fs, "java.lang.Error")

	m := newTestModel(t, fs, nil)
	m, _ = press(m, "enter")
	assert.True(t, m.detailFocused)

	// n scrolls nothing and must not page while the detail has focus.
	m, cmd := press(m, "n")
	assert.Nil(t, cmd)

	m, _ = press(m, "esc")
	assert.False(t, m.detailFocused)

	_, cmd = press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMainModel_LinesFitTerminalWidth(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	long := "java.lang.IllegalArgumentException: " + strings.Repeat("very long message text ", 20)
	writeReport(t, fs, long, "at com.app."+strings.Repeat("Nested", 30)+".call(App.java:1)")

	for _, width := range []int{80, 100, 160} {
		m := NewMainModel(fs, Options{})
		updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: 30})
		m = drive(t, updated.(MainModel), m.Init())

		for i, line := range strings.Split(m.View(), "\n") {
			assert.LessOrEqual(t, ansi.StringWidth(line), width, "width %d line %d: %q", width, i, ansi.Strip(line))
		}
	}
}
