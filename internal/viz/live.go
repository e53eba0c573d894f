package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/metrics"
	"github.com/san-kum/clothsim/internal/sim"
)

const (
	width           = 60
	height          = 22
	historyCapacity = 600
	frameRate       = 30
)

type TickMsg time.Time

type viewMode int

const (
	viewHeightMap viewMode = iota
	viewWireframe
)

// Model steps a cloth in real time and renders it in the terminal.
type Model struct {
	name       string
	cfg        *config.Config
	initial    *config.Config
	dispatcher cloth.Dispatcher
	cloth      *cloth.Clothe

	t             float64
	stepsPerFrame int
	running       bool
	err           error

	mode          viewMode
	canvas        *Canvas
	camera        *Camera
	width, height int

	heightHist  []float64
	stretchHist []float64

	paramKeys []string
	selected  int
	showHelp  bool
}

// NewModel builds the cloth described by cfg. d may be nil for serial
// stepping.
func NewModel(cfg *config.Config, name string, d cloth.Dispatcher) (Model, error) {
	c, err := cfg.NewCloth(d)
	if err != nil {
		return Model{}, err
	}

	keys := make([]string, 0)
	for k := range cfg.GetParams() {
		// mass is fixed once the cloth is built
		if k != "mass" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	steps := int(math.Round(1.0 / frameRate / float64(cfg.Params.Dt)))

	return Model{
		name:          name,
		cfg:           cfg.Clone(),
		initial:       cfg.Clone(),
		dispatcher:    d,
		cloth:         c,
		stepsPerFrame: max(steps, 1),
		running:       true,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		width:         width,
		height:        height,
		heightHist:    make([]float64, 0, historyCapacity),
		stretchHist:   make([]float64, 0, historyCapacity),
		paramKeys:     keys,
	}, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.err == nil {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "v":
			m.mode = (m.mode + 1) % 2
		case "t":
			NextTheme()
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = max(20, msg.Width-50)
		m.height = max(8, msg.Height-4)
		m.canvas = NewCanvas(m.width, m.height)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances the cloth by one frame's worth of ticks.
func (m *Model) step() {
	sphere, params := m.cfg.Obstacle(), m.cfg.ComputeParams()
	for i := 0; i < m.stepsPerFrame; i++ {
		if err := m.cloth.Step(m.cfg.Params.Dt, sphere, params); err != nil {
			m.fail(err)
			return
		}
		m.t += float64(m.cfg.Params.Dt)
	}
	if !metrics.Finite(m.cloth) {
		m.fail(sim.ErrDiverged)
		return
	}

	m.heightHist = appendCapped(m.heightHist, metrics.MeanHeight(m.cloth))
	m.stretchHist = appendCapped(m.stretchHist, metrics.MaxStretch(m.cloth))
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) cycleParam() {
	if len(m.paramKeys) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.paramKeys)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	old := m.cfg.GetParams()[key]
	if err := m.cfg.SetParam(key, old*factor); err != nil {
		return
	}
	if m.cfg.Validate() != nil {
		m.cfg.SetParam(key, old)
	}
}

// reset rebuilds the cloth and restores the initial parameters.
func (m *Model) reset() {
	c, err := m.initial.NewCloth(m.dispatcher)
	if err != nil {
		m.fail(err)
		return
	}
	m.cloth = c
	m.cfg = m.initial.Clone()
	m.t = 0
	m.err = nil
	m.running = true
	m.heightHist = m.heightHist[:0]
	m.stretchHist = m.stretchHist[:0]
}

// Cloth returns the cloth being simulated.
func (m Model) Cloth() *cloth.Clothe { return m.cloth }

// Time returns the simulated time.
func (m Model) Time() float64 { return m.t }

func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	var main string
	switch m.mode {
	case viewWireframe:
		m.canvas.Clear()
		origin := mgl32.Vec3(m.cfg.Cloth.Center)
		RenderSphere(m.canvas, m.cfg.Obstacle(), m.camera, origin)
		RenderWireframe(m.canvas, m.cloth, m.camera, origin)
		main = viewStyle.Render(m.canvas.String())
	default:
		main = viewStyle.Render(RenderHeightMap(HeightGrid(m.cloth, m.height, m.width/2)))
	}

	var s strings.Builder
	s.WriteString(headerStyle().Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if chart := PlotSeries(m.heightHist, "mean height", 30, 5); chart != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(chart) + "\n\n")
	}

	stat := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	stat("Time", fmt.Sprintf("%.2fs", m.t))
	stat("Ticks", fmt.Sprintf("%d", m.cloth.Ticks()))
	stat("Vertices", fmt.Sprintf("%d", m.cloth.VertexCount()))
	stat("Height", fmt.Sprintf("%.3f", metrics.MeanHeight(m.cloth)))
	stat("Stretch", fmt.Sprintf("%.3f", metrics.MaxStretch(m.cloth)))
	stat("Clearance", fmt.Sprintf("%.3f", metrics.MinClearance(m.cloth, m.cfg.Obstacle())))
	stat("Kinetic", fmt.Sprintf("%.3f", metrics.KineticEnergy(m.cloth)))

	s.WriteString("\nPARAMETERS\n")
	params := m.cfg.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-16s %.4g", k, params[k])
		if i == m.selected {
			s.WriteString(activeStyle().Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset Q:Quit V:View\nT:Theme Tab/↑↓:Tune ?:Help"))
	view := lipgloss.JoinHorizontal(lipgloss.Top, main, panelStyle.Render(s.String()))

	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true).Render("STOPPED: " + m.err.Error())
	case !m.running:
		return "PAUSED"
	default:
		return "RUNNING"
	}
}

const helpText = `
  Space    pause / resume
  R        rebuild the cloth
  Tab      next parameter
  Up/K     parameter +5%
  Down/J   parameter -5%
  V        height map / wireframe
  X Y      rotate camera (shift reverses)
  + -      zoom
  T        next theme
  Q        quit
`
