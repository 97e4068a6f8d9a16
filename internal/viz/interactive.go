package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/verletsim/internal/config"
)

var presetInfo = map[string]string{
	"fountain": "reference emitter, 1200 particles",
	"gentle":   "slow stream below the grid threshold",
	"dense":    "2000 small particles, 4 passes",
	"edge":     "ring-patch grid edge handling",
}

const (
	stateMenu = iota
	stateSim
)

// app is a preset picker in front of the live view.
type app struct {
	state, cursor int
	presets       []string
	err           error
	liveModel     Model
}

func NewInteractiveApp() *app {
	return &app{
		state:   stateMenu,
		presets: config.ListPresets(),
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		next, cmd := m.liveModel.Update(msg)
		m.liveModel = next.(Model)
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
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
		return m.start()
	}
	return m, nil
}

func (m app) start() (app, tea.Cmd) {
	cfg := config.GetPreset(m.presets[m.cursor])
	if err := cfg.ApplyEnv(); err != nil {
		m.err = err
		return m, nil
	}
	live, err := NewModel(cfg)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.liveModel = live
	m.state = stateSim
	return m, live.Init()
}

func (m app) View() string {
	if m.state == stateSim {
		return m.liveModel.View()
	}

	var b strings.Builder
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	b.WriteString("\n\n    " + GradientText("VERLETSIM", CurrentTheme.Primary, CurrentTheme.Secondary) + "\n")
	b.WriteString("    " + sub.Render("verlet particle solver") + "\n")
	b.WriteString("    " + sub.Render("─────────────────────────") + "\n\n")

	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render("▸"),
				lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true).Render(fmt.Sprintf("%-10s", name)),
				lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-10s", name)), sub.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + StatusError.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + sub.Render("j/k navigate  enter select  esc back  q quit") + "\n")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
