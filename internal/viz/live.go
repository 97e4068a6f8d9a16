package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/verletsim/internal/config"
	"github.com/san-kum/verletsim/internal/experiment"
)

const (
	canvasWidth     = 60
	canvasHeight    = 30
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives an experiment frame by frame and draws it.
type Model struct {
	cfg    *config.Config
	exp    *experiment.Experiment
	canvas *Canvas

	running  bool
	showHelp bool
	err      error
	notice   string

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	last           experiment.FrameStats
	energyHistory  []float64
	contactHistory []float64
	frameTimes     []time.Duration
}

func NewModel(cfg *config.Config) (Model, error) {
	exp, err := experiment.New(cfg)
	if err != nil {
		return Model{}, err
	}

	params := exp.Solver().GetParams()
	initial := make(map[string]float64, len(params))
	keys := make([]string, 0, len(params))
	for k, v := range params {
		initial[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Model{
		cfg:            cfg,
		exp:            exp,
		canvas:         NewCanvas(canvasWidth, canvasHeight),
		running:        true,
		params:         params,
		initialParams:  initial,
		paramKeys:      keys,
		energyHistory:  make([]float64, 0, historyCapacity),
		contactHistory: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s", ".":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1)
		case "down", "j":
			m.adjustParam(-1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	start := time.Now()
	fs, err := m.exp.Frame()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.last = fs
	m.frameTimes = appendCapped(m.frameTimes, time.Since(start), 60)
	m.energyHistory = appendCapped(m.energyHistory, fs.Kinetic, historyCapacity)
	m.contactHistory = appendCapped(m.contactHistory, float64(fs.Contacts), historyCapacity)
}

func appendCapped[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if len(s) > limit {
		s = s[1:]
	}
	return s
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

// adjustParam nudges the selected parameter up or down. Integer params move
// by at least one.
func (m *Model) adjustParam(dir int) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	next := nudge(key, m.params[key], dir)
	if err := m.exp.Solver().SetParam(key, next); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = ""
	m.params[key] = next
}

func nudge(key string, val float64, dir int) float64 {
	switch key {
	case "iterations":
		return val + float64(dir)
	case "threshold":
		step := math.Max(1, math.Round(val*0.1))
		return val + step*float64(dir)
	case "response":
		return math.Round((val+0.05*float64(dir))*100) / 100
	default:
		return val * (1 + 0.1*float64(dir))
	}
}

// reset rebuilds the experiment from the starting configuration.
func (m *Model) reset() {
	exp, err := experiment.New(m.cfg)
	if err != nil {
		m.err = err
		return
	}
	m.exp = exp
	m.err = nil
	m.notice = ""
	m.last = experiment.FrameStats{}
	m.energyHistory = m.energyHistory[:0]
	m.contactHistory = m.contactHistory[:0]
	m.frameTimes = m.frameTimes[:0]
	for k, v := range m.initialParams {
		m.params[k] = v
	}
}

// draw projects the boundary square onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	solver := m.exp.Solver()
	center, radius := solver.Boundary()
	pw, ph := m.canvas.PixelSize()
	scale := float64(min(pw, ph)-1) / (2 * radius)
	ox, oy := float64(pw)/2, float64(ph)/2

	m.canvas.DrawCircle(int(ox), int(oy), int(radius*scale), string(CurrentTheme.Boundary))

	for _, p := range solver.Particles() {
		x := int(math.Round(ox + (p.Position.X-center.X)*scale))
		y := int(math.Round(oy + (p.Position.Y-center.Y)*scale))
		hex := string(CurrentTheme.Primary)
		if c, ok := p.Payload.(colorful.Color); ok {
			hex = c.Clamped().Hex()
		}
		m.canvas.FillCircle(x, y, int(p.Radius*scale), hex)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.Render())

	var s strings.Builder
	title := strings.ToUpper(m.cfg.Name)
	s.WriteString(GradientText("VERLETSIM "+title, CurrentTheme.Primary, CurrentTheme.Secondary) + "\n\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusError.Render("ERROR") + " " + m.err.Error() + "\n\n")
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle().Render(label) + valueStyle().Render(value) + "\n")
	}
	solver := m.exp.Solver()
	row("Time", fmt.Sprintf("%.2fs", solver.Time()))
	row("Particles", fmt.Sprintf("%d / %d", solver.Count(), m.cfg.Spawner.MaxCount))
	if m.cfg.Spawner.MaxCount > 0 {
		s.WriteString(strings.Repeat(" ", 12) + ProgressBar(float64(solver.Count())/float64(m.cfg.Spawner.MaxCount), 20) + "\n")
	}
	row("Strategy", m.last.Strategy)
	row("Contacts", fmt.Sprintf("%d", m.last.Contacts))
	s.WriteString(strings.Repeat(" ", 12) + SparklineChart(m.contactHistory, 20) + "\n")
	row("Overlap", fmt.Sprintf("%.3f", m.last.MaxOverlap))
	row("Escaped", fmt.Sprintf("%d", m.last.Escaped))
	row("Step", fmt.Sprintf("%.2fms", meanMillis(m.frameTimes)))

	s.WriteString("\n" + Separator(40) + "\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %10.2f", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeStyle().Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle().UnsetWidth().Render(line) + "\n")
		}
	}
	if m.notice != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Warning).Render(m.notice) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause S:Step R:Reset Q:Quit\nTab:Param ↑↓:Tune T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, panelStyle().Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space     pause / resume
  S or .    single frame while paused
  R         restart from the initial configuration
  Tab       select parameter
  Up/K      increase parameter
  Down/J    decrease parameter
  T         cycle themes
  Q         quit
`

func meanMillis(ds []time.Duration) float64 {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return float64(total.Microseconds()) / float64(len(ds)) / 1000
}

// RunLive runs the live view for cfg until the user quits.
func RunLive(cfg *config.Config) error {
	m, err := NewModel(cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
