// Package viewer provides the interactive report matrix viewer.
package viewer

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	rtable "github.com/j-veylop/exon-report/internal/table"
	"github.com/j-veylop/exon-report/internal/ui/components"
	"github.com/j-veylop/exon-report/internal/ui/styles"
)

const (
	keyColumnTitle = "Организация"
	minKeyWidth    = 16
	maxKeyWidth    = 40
	minValueWidth  = 6
)

// Snapshot is what the viewer displays.
type Snapshot struct {
	Title  string
	Matrix rtable.Matrix
	// Totals are grand totals of earlier runs, oldest first.
	Totals []float64
}

// Loader produces the snapshot to display.
type Loader func() (Snapshot, error)

// keyMap defines the viewer key bindings.
type keyMap struct {
	Quit   key.Binding
	Chart  key.Binding
	Reload key.Binding
	Up     key.Binding
	Down   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Chart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle charts"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// snapshotLoadedMsg is sent when the loader finishes.
type snapshotLoadedMsg struct {
	snapshot Snapshot
}

// loadErrorMsg is sent when the loader fails.
type loadErrorMsg struct {
	err error
}

// Model is the viewer state.
type Model struct {
	load      Loader
	err       error
	snapshot  Snapshot
	keys      keyMap
	spinner   components.LoadingSpinner
	table     table.Model
	width     int
	height    int
	watcher   *historyWatcher
	loading   bool
	showChart bool
}

// New creates a viewer that displays what load returns.
func New(load Loader) *Model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = styles.TableHeaderStyle.Padding(0, 1)
	s.Selected = styles.TableSelectedStyle
	t.SetStyles(s)

	return &Model{
		load:    load,
		keys:    defaultKeyMap(),
		spinner: components.NewSpinner("Загрузка отчета..."),
		table:   t,
		loading: true,
	}
}

// Watch reloads the snapshot whenever another process writes the history
// database at dbPath.
func (m *Model) Watch(dbPath string) error {
	w, err := newHistoryWatcher(dbPath)
	if err != nil {
		return err
	}
	m.watcher = w
	return nil
}

// Close stops watching the history database.
func (m *Model) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.close()
}

// Init starts loading the snapshot.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick(), m.loadCmd()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait())
	}
	return tea.Batch(cmds...)
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.load()
		if err != nil {
			return loadErrorMsg{err: err}
		}
		return snapshotLoadedMsg{snapshot: snap}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case snapshotLoadedMsg:
		m.loading = false
		m.err = nil
		m.snapshot = msg.snapshot
		m.refreshTable()
		return m, nil

	case loadErrorMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case historyChangedMsg:
		var cmds []tea.Cmd
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.wait())
		}
		if !m.loading {
			cmds = append(cmds, m.reload())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.loading {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Chart):
		m.showChart = !m.showChart
		m.resizeTable()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return m, nil
		}
		return m, m.reload()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.spinner = m.spinner.WithLabel("Обновление отчета...")
	return tea.Batch(m.spinner.Tick(), m.loadCmd())
}

// SetSize sets the available size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.refreshTable()
}

// refreshTable rebuilds columns and rows for the current snapshot and width.
func (m *Model) refreshTable() {
	mx := m.snapshot.Matrix
	keyWidth := m.keyWidth()

	columns := make([]table.Column, 0, len(mx.Columns)+1)
	columns = append(columns, table.Column{Title: keyColumnTitle, Width: keyWidth})
	for _, name := range mx.Columns {
		columns = append(columns, table.Column{Title: name, Width: max(minValueWidth, lipgloss.Width(name))})
	}

	rows := make([]table.Row, 0, len(mx.Rows))
	for _, r := range mx.Rows {
		row := make(table.Row, 0, len(r.Values)+1)
		row = append(row, truncateName(r.Key, keyWidth))
		for _, v := range r.Values {
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, row)
	}

	// Rows must be cleared before narrowing columns.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.resizeTable()
}

func (m *Model) resizeTable() {
	if m.height == 0 {
		return
	}
	reserved := 8
	if m.showChart {
		reserved += chartHeight + len(m.snapshot.Matrix.Columns) + 4
	}
	m.table.SetHeight(max(3, m.height-reserved))
}

// keyWidth sizes the organization column to the longest name within bounds,
// leaving room for the count columns when the window is narrow.
func (m *Model) keyWidth() int {
	longest := lipgloss.Width(keyColumnTitle)
	for _, r := range m.snapshot.Matrix.Rows {
		longest = max(longest, lipgloss.Width(r.Key))
	}
	width := min(max(longest, minKeyWidth), maxKeyWidth)

	if m.width > 0 {
		used := 0
		for _, name := range m.snapshot.Matrix.Columns {
			used += max(minValueWidth, lipgloss.Width(name)) + 2
		}
		if avail := m.width - used - 6; avail < width {
			width = max(minKeyWidth, avail)
		}
	}
	return width
}

func truncateName(name string, width int) string {
	if lipgloss.Width(name) <= width {
		return name
	}
	return ansi.Truncate(name, width, "…")
}

// ShortHelp returns the key bindings for the help line.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Chart, m.keys.Reload, m.keys.Quit}
}
