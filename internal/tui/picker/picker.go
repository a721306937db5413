// Package picker is the interactive notebook selection screen. The
// selection it returns is persisted in the config so exports can run
// headless afterwards.
package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// Item is one selectable notebook.
type Item struct {
	GUID  string
	Name  string
	Stack string
	Notes int
}

func (i Item) display() string {
	if i.Stack != "" {
		return i.Stack + " / " + i.Name
	}
	return i.Name
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].display() }
func (s itemSource) Len() int            { return len(s) }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	checkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type Model struct {
	items    []Item
	selected map[string]bool
	filter   string
	visible  []int // indexes into items, filter applied
	cursor   int
	done     bool
	aborted  bool
}

func New(items []Item, preselected []string) Model {
	sel := make(map[string]bool, len(preselected))
	for _, g := range preselected {
		sel[g] = true
	}
	m := Model{items: items, selected: sel}
	m.applyFilter()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	case "esc":
		if m.filter != "" {
			m.filter = ""
			m.applyFilter()
			return m, nil
		}
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "ctrl+n":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case " ":
		if m.cursor < len(m.visible) {
			guid := m.items[m.visible[m.cursor]].GUID
			m.selected[guid] = !m.selected[guid]
		}
	case "ctrl+a":
		for _, i := range m.visible {
			m.selected[m.items[i].GUID] = true
		}
	case "ctrl+d":
		for _, i := range m.visible {
			delete(m.selected, m.items[i].GUID)
		}
	case "backspace":
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.applyFilter()
		}
	default:
		if key.Type == tea.KeyRunes {
			m.filter += string(key.Runes)
			m.applyFilter()
		}
	}
	return m, nil
}

func (m *Model) applyFilter() {
	m.visible = m.visible[:0]
	if m.filter == "" {
		for i := range m.items {
			m.visible = append(m.visible, i)
		}
	} else {
		for _, match := range fuzzy.FindFrom(m.filter, itemSource(m.items)) {
			m.visible = append(m.visible, match.Index)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select notebooks to export"))
	b.WriteString("\n")
	if m.filter != "" {
		b.WriteString(dimStyle.Render("filter: " + m.filter))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for pos, i := range m.visible {
		item := m.items[i]
		cursor := "  "
		if pos == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.selected[item.GUID] {
			check = checkStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, check, item.display(),
			dimStyle.Render(fmt.Sprintf("(%d notes)", item.Notes)))
	}
	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("  no notebooks match"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("space toggle · ctrl+a all · ctrl+d none · type to filter · enter confirm · esc cancel"))
	b.WriteString("\n")
	return b.String()
}

// Selection returns the chosen notebook GUIDs in item order. ok is
// false when the picker was cancelled.
func (m Model) Selection() (guids []string, ok bool) {
	if m.aborted || !m.done {
		return nil, false
	}
	for _, item := range m.items {
		if m.selected[item.GUID] {
			guids = append(guids, item.GUID)
		}
	}
	return guids, true
}

// Run shows the picker and blocks until the user confirms or cancels.
func Run(items []Item, preselected []string) ([]string, bool, error) {
	prog := tea.NewProgram(New(items, preselected))
	final, err := prog.Run()
	if err != nil {
		return nil, false, fmt.Errorf("run notebook picker: %w", err)
	}
	guids, ok := final.(Model).Selection()
	return guids, ok, nil
}
