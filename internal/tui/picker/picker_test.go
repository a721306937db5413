package picker

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func items() []Item {
	return []Item{
		{GUID: "g1", Name: "Recipes", Notes: 12},
		{GUID: "g2", Name: "Work", Notes: 40},
		{GUID: "g3", Name: "Old Work", Stack: "Archive", Notes: 3},
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+a":
			msg = tea.KeyMsg{Type: tea.KeyCtrlA}
		case "ctrl+d":
			msg = tea.KeyMsg{Type: tea.KeyCtrlD}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestPickerToggleAndConfirm(t *testing.T) {
	m := press(New(items(), nil), "space", "down", "space", "enter")
	guids, ok := m.Selection()
	if !ok {
		t.Fatal("selection not confirmed")
	}
	if len(guids) != 2 || guids[0] != "g1" || guids[1] != "g2" {
		t.Errorf("guids = %v", guids)
	}
}

func TestPickerPreselection(t *testing.T) {
	m := press(New(items(), []string{"g3"}), "enter")
	guids, ok := m.Selection()
	if !ok || len(guids) != 1 || guids[0] != "g3" {
		t.Errorf("guids = %v, ok = %v", guids, ok)
	}
}

func TestPickerSelectAllAndNone(t *testing.T) {
	m := press(New(items(), nil), "ctrl+a", "enter")
	guids, _ := m.Selection()
	if len(guids) != 3 {
		t.Errorf("all: guids = %v", guids)
	}

	m = press(New(items(), []string{"g1", "g2"}), "ctrl+d", "enter")
	guids, _ = m.Selection()
	if len(guids) != 0 {
		t.Errorf("none: guids = %v", guids)
	}
}

func TestPickerCancel(t *testing.T) {
	m := press(New(items(), []string{"g1"}), "esc")
	if _, ok := m.Selection(); ok {
		t.Error("cancelled picker returned a selection")
	}
}

func TestPickerFilter(t *testing.T) {
	m := press(New(items(), nil), "w", "o", "r", "k")
	if len(m.visible) != 2 {
		t.Fatalf("visible = %v", m.visible)
	}
	m = press(m, "space", "enter")
	guids, _ := m.Selection()
	if len(guids) != 1 {
		t.Errorf("guids = %v", guids)
	}

	view := New(items(), nil).View()
	if !strings.Contains(view, "Recipes") || !strings.Contains(view, "(12 notes)") {
		t.Errorf("view missing items:\n%s", view)
	}
}
