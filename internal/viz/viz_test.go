package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/config"
)

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.Dots(); w != 8 || h != 8 {
		t.Fatalf("dots = %dx%d", w, h)
	}

	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.Lit(i, i) {
			t.Errorf("dot (%d,%d) not lit", i, i)
		}
	}
	if c.Lit(7, 0) {
		t.Error("dot (7,0) should be dark")
	}

	c.Set(-1, 3)
	c.Set(100, 100)

	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 2 || len([]rune(lines[0])) != 4 {
		t.Fatalf("unexpected canvas shape %q", lines)
	}

	c.Clear()
	if c.Lit(0, 0) {
		t.Error("clear should reset every dot")
	}
}

func TestCameraProjectsOriginToCenter(t *testing.T) {
	cam := NewCamera()
	x, y, _, ok := cam.Project(mgl32.Vec3{}, 80, 40)
	if !ok || x != 40 || y != 20 {
		t.Errorf("origin projected to (%d,%d) ok=%v", x, y, ok)
	}

	cam.Zoom = 10
	if _, _, _, ok := cam.Project(mgl32.Vec3{0, 0, 1}, 80, 40); ok {
		t.Error("point behind the camera should not be visible")
	}
}

func TestEdges(t *testing.T) {
	c, err := cloth.New(1, 3, mgl32.Vec3{})
	if err != nil {
		t.Fatal(err)
	}
	// 2·N·(N+1) structural edges
	if got := len(Edges(c)); got != 24 {
		t.Errorf("expected 24 edges, got %d", got)
	}
}

func TestHeightGrid(t *testing.T) {
	c, err := cloth.New(2, 4, mgl32.Vec3{0, 3, 0})
	if err != nil {
		t.Fatal(err)
	}

	grid := HeightGrid(c, 3, 100)
	if len(grid) != 3 || len(grid[0]) != 5 {
		t.Fatalf("grid = %dx%d, want 3x5", len(grid), len(grid[0]))
	}
	for _, row := range grid {
		for _, h := range row {
			if h != 3 {
				t.Fatalf("height %v, want 3", h)
			}
		}
	}

	out := RenderHeightMap(grid)
	if strings.Count(out, "\n") != 3 {
		t.Errorf("expected 3 rows, got %q", out)
	}
}

func TestRampIndex(t *testing.T) {
	tests := []struct {
		h, lo, hi float64
		want      int
	}{
		{0, 0, 1, 0},
		{1, 0, 1, 4},
		{0.5, 0, 1, 2},
		{2, 2, 2, 4},
	}
	for _, tt := range tests {
		if got := rampIndex(tt.h, tt.lo, tt.hi, 5); got != tt.want {
			t.Errorf("rampIndex(%v, %v, %v) = %d, want %d", tt.h, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(ThemeOcean.Name)

	if len(ThemeNames()) != 3 {
		t.Errorf("expected 3 themes, got %v", ThemeNames())
	}
	SetTheme("heat")
	if CurrentTheme.Name != "heat" {
		t.Errorf("theme = %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "mono" {
		t.Errorf("next theme = %s", CurrentTheme.Name)
	}
	if GetTheme("missing").Name != ThemeOcean.Name {
		t.Error("unknown theme should fall back to ocean")
	}
}

func TestPlotSeries(t *testing.T) {
	if PlotSeries([]float64{1}, "x", 10, 3) != "" {
		t.Error("single value should not plot")
	}
	out := PlotSeries([]float64{0, 1, 0, 1}, "mean height", 20, 4)
	if !strings.Contains(out, "mean height") {
		t.Errorf("caption missing from %q", out)
	}
}

func newModel(t *testing.T) Model {
	t.Helper()
	cfg := config.GetPreset("single_cell")
	m, err := NewModel(cfg, "single_cell", nil)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelSteps(t *testing.T) {
	m := newModel(t)
	// 1/30 s at dt 0.01
	if m.stepsPerFrame != 3 {
		t.Fatalf("stepsPerFrame = %d", m.stepsPerFrame)
	}

	next, cmd := m.Update(TickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	if m.Cloth().Ticks() != 3 {
		t.Errorf("expected 3 ticks, got %d", m.Cloth().Ticks())
	}
	if len(m.heightHist) != 1 {
		t.Errorf("history length %d", len(m.heightHist))
	}

	m = press(m, " ")
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if m.Cloth().Ticks() != 3 {
		t.Error("paused model should not step")
	}

	m = press(m, "r")
	if m.Cloth().Ticks() != 0 || m.Time() != 0 || !m.running {
		t.Error("reset should rebuild a running cloth")
	}
}

func TestModelTuning(t *testing.T) {
	m := newModel(t)
	if len(m.paramKeys) != 5 {
		t.Fatalf("expected 5 tunable params, got %v", m.paramKeys)
	}

	// keys are sorted: damping first
	before := m.cfg.Params.Damping
	m = press(m, "k")
	if m.cfg.Params.Damping <= before {
		t.Errorf("damping %v should have grown from %v", m.cfg.Params.Damping, before)
	}

	m = press(m, "tab")
	if m.paramKeys[m.selected] != "friction" {
		t.Fatalf("selected %s", m.paramKeys[m.selected])
	}
	m.cfg.Sphere.Friction = 1
	m = press(m, "k")
	if m.cfg.Sphere.Friction != 1 {
		t.Errorf("friction above 1 should be rejected, got %v", m.cfg.Sphere.Friction)
	}

	m = press(m, "r")
	if m.cfg.Params.Damping != before {
		t.Error("reset should restore parameters")
	}
}

func TestModelView(t *testing.T) {
	m := newModel(t)
	out := m.View()
	for _, want := range []string{"SINGLE_CELL", "RUNNING", "spring_constant"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "v")
	if m.mode != viewWireframe {
		t.Fatal("v should switch to wireframe")
	}
	if !strings.Contains(m.View(), "SINGLE_CELL") {
		t.Error("wireframe view missing header")
	}
}

func TestModelStopsOnDivergence(t *testing.T) {
	m := newModel(t)
	m.cfg.Params.SpringConstant = 1e12
	m.cfg.Params.Dt = 0.1
	for i := 0; i < 50 && m.Err() == nil; i++ {
		next, _ := m.Update(TickMsg{})
		m = next.(Model)
	}
	if m.Err() == nil {
		t.Fatal("expected divergence")
	}
	if m.running {
		t.Error("model should stop after divergence")
	}
	if !strings.Contains(m.View(), "STOPPED") {
		t.Error("view should show the stop reason")
	}
}

func TestMenu(t *testing.T) {
	var m tea.Model = NewMenu(nil)
	if !strings.Contains(m.View(), "drape") {
		t.Error("menu should list presets")
	}

	// curtain, drape, hang, single_cell
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("selecting a preset should start the live view")
	}
	if !strings.Contains(m.View(), "HANG") {
		t.Errorf("expected the hang preset to be running")
	}
}
