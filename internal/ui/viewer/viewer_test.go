package viewer

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	rtable "github.com/j-veylop/exon-report/internal/table"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()
	m, err := rtable.MaterializeReportTable(
		[][]rtable.Count{{{Key: "Альфа", N: 2}}, {{Key: "ООО Очень Длинное Название Подрядной Организации", N: 3}}},
		[]string{"ИТД", "Замечания"},
		[]string{"Альфа", "ООО Очень Длинное Название Подрядной Организации"},
	)
	if err != nil {
		t.Fatalf("MaterializeReportTable() error = %v", err)
	}
	return Snapshot{Title: "Проект p1", Matrix: m, Totals: []float64{3, 5}}
}

func loaded(t *testing.T) *Model {
	t.Helper()
	snap := sampleSnapshot(t)
	m := New(func() (Snapshot, error) { return snap, nil })
	m.SetSize(100, 40)
	m.Update(m.loadCmd()())
	return m
}

func TestModel_Init(t *testing.T) {
	m := New(func() (Snapshot, error) { return Snapshot{}, nil })
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
	if !m.loading {
		t.Error("new model should be loading")
	}
	if !strings.Contains(m.View(), "Загрузка") {
		t.Errorf("View() while loading = %q", m.View())
	}
}

func TestModel_QuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}

	for _, k := range keys {
		t.Run(k.String(), func(t *testing.T) {
			m := loaded(t)
			_, cmd := m.Update(k)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("key %q did not quit", k.String())
			}
		})
	}
}

func TestModel_View(t *testing.T) {
	m := loaded(t)

	view := m.View()
	for _, want := range []string{"Проект p1", "Организация", "Альфа", "Итого: 5", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(view, "По категориям") {
		t.Error("charts should be hidden by default")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	view = m.View()
	if !strings.Contains(view, "По категориям") || !strings.Contains(view, "История") {
		t.Error("charts should be shown after toggling")
	}
}

func TestModel_TruncatesLongNames(t *testing.T) {
	m := loaded(t)

	rows := m.table.Rows()
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	name := rows[1][0]
	if !strings.HasSuffix(name, "…") {
		t.Errorf("long name not truncated: %q", name)
	}
	if lipgloss.Width(name) > maxKeyWidth {
		t.Errorf("truncated width = %d, want <= %d", lipgloss.Width(name), maxKeyWidth)
	}
	if rows[2][0] != rtable.TotalLabel || rows[2][3] != "5" {
		t.Errorf("total row = %v", rows[2])
	}
}

func TestModel_LoadError(t *testing.T) {
	m := New(func() (Snapshot, error) { return Snapshot{}, errors.New("нет запусков") })
	m.Update(m.loadCmd()())

	if m.loading {
		t.Error("loading should stop after an error")
	}
	if !strings.Contains(m.View(), "нет запусков") {
		t.Errorf("View() = %q, want error text", m.View())
	}
}

func TestModel_Reload(t *testing.T) {
	calls := 0
	snap := sampleSnapshot(t)
	m := New(func() (Snapshot, error) {
		calls++
		return snap, nil
	})
	m.Update(m.loadCmd()())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil || !m.loading {
		t.Fatal("reload should start loading")
	}
	if !strings.Contains(m.View(), "Обновление") {
		t.Errorf("View() while reloading = %q", m.View())
	}

	// A second reload while loading is ignored.
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("reload while loading should be ignored")
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("Альфа", 10); got != "Альфа" {
		t.Errorf("short name changed: %q", got)
	}
	if got := truncateName("Альфа-Бета-Гамма", 8); lipgloss.Width(got) > 8 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncateName() = %q", got)
	}
}
