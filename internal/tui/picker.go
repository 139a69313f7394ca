package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// defaultPickerHeight is the number of rows shown before scrolling.
const defaultPickerHeight = 15

// ErrPickCancelled is returned when the user quits the picker.
var ErrPickCancelled = errors.New("selection cancelled")

type pickerKeys struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

//nolint:gochecknoglobals // Immutable key map.
var defaultPickerKeys = pickerKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// PickerModel is a multi-select list. Only the rows around the cursor are
// rendered, so long lists scroll.
type PickerModel struct {
	title    string
	items    []string
	selected map[int]bool
	cursor   int

	visibleFrom int
	height      int

	keys      pickerKeys
	done      bool
	cancelled bool
}

// NewPickerModel creates a picker over items.
func NewPickerModel(title string, items []string) *PickerModel {
	return &PickerModel{
		title:    title,
		items:    items,
		selected: make(map[int]bool),
		height:   defaultPickerHeight,
		keys:     defaultPickerKeys,
	}
}

// Init implements tea.Model.
func (m *PickerModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Title, blank line and help take three rows.
		if h := msg.Height - 3; h > 0 {
			m.height = h
		}
		m.scroll()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *PickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if len(m.items) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case key.Matches(msg, m.keys.All):
		all := len(m.Selected()) < len(m.items)
		for i := range m.items {
			m.selected[i] = all
		}
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the rendered window.
func (m *PickerModel) scroll() {
	if m.cursor < m.visibleFrom {
		m.visibleFrom = m.cursor
	}
	if m.cursor >= m.visibleFrom+m.height {
		m.visibleFrom = m.cursor - m.height + 1
	}
}

// View implements tea.Model.
func (m *PickerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(m.title) + "\n\n")

	end := min(m.visibleFrom+m.height, len(m.items))
	for i := m.visibleFrom; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = RankStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[i] {
			box = OKStyle.Render("[x]")
		}
		fmt.Fprintf(&sb, "%s%s %2d. %s\n", cursor, box, i+1, m.items[i])
	}

	help := []string{}
	for _, b := range []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.All, m.keys.Confirm, m.keys.Quit} {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	sb.WriteString(SubtleStyle.Render(strings.Join(help, " • ")))
	return sb.String()
}

// Selected returns the selected indices in ascending order.
func (m *PickerModel) Selected() []int {
	out := make([]int, 0, len(m.selected))
	for i, on := range m.selected {
		if on {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Cancelled reports whether the user quit without confirming.
func (m *PickerModel) Cancelled() bool { return m.cancelled }

// Pick runs a picker over items and returns the chosen indices.
// ErrPickCancelled is returned when the user quits.
func Pick(ctx context.Context, title string, items []string, in io.Reader, out io.Writer) ([]int, error) {
	m := NewPickerModel(title, items)
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}
	pm, ok := final.(*PickerModel)
	if !ok || pm.Cancelled() {
		return nil, ErrPickCancelled
	}
	return pm.Selected(), nil
}
