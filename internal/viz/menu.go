package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
)

var presetInfo = map[string]string{
	"drape":       "falls onto the sphere",
	"hang":        "hangs from two corners",
	"curtain":     "hangs from its top edge",
	"single_cell": "one cell, one pinned corner",
}

const (
	stateMenu = iota
	stateSim
)

// menu picks a preset and then hands over to the live Model.
type menu struct {
	state      int
	cursor     int
	presets    []string
	dispatcher cloth.Dispatcher
	live       Model
	err        error
}

func NewMenu(d cloth.Dispatcher) tea.Model {
	return menu{presets: config.ListPresets(), dispatcher: d}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		name := m.presets[m.cursor]
		live, err := NewModel(config.GetPreset(name), name, m.dispatcher)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live, m.state = live, stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func (m menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	title := lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true)
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	active := lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true)

	var b strings.Builder
	b.WriteString("\n    " + title.Render("CLOTHSIM") + "\n    " + sub.Render("mass-spring cloth") + "\n\n")
	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", title.Render("▸"), active.Render(fmt.Sprintf("%-12s", name)), title.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-12s", name)), sub.Render(presetInfo[name])))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + sub.Render("j/k navigate  enter select  q quit") + "\n")
	return b.String()
}

// RunMenu runs the preset picker.
func RunMenu(d cloth.Dispatcher) error {
	_, err := tea.NewProgram(NewMenu(d), tea.WithAltScreen()).Run()
	return err
}

// RunLive runs the live view of a single configuration.
func RunLive(cfg *config.Config, name string, d cloth.Dispatcher) error {
	m, err := NewModel(cfg, name, d)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
