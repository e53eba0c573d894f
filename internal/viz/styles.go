package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/clothsim/internal/cloth"
)

var (
	panelStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	viewStyle  = lipgloss.NewStyle().Padding(1, 2)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).MarginBottom(1)
}

func activeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true)
}

// HeightGrid samples the cloth's heights on a rows×cols grid, picking the
// nearest vertex for each cell. rows and cols are capped at the cloth's own
// resolution.
func HeightGrid(c *cloth.Clothe, rows, cols int) [][]float64 {
	side := int(c.Subdivisions()) + 1
	rows, cols = min(rows, side), min(cols, side)
	if rows < 1 || cols < 1 {
		return nil
	}

	grid := make([][]float64, rows)
	for r := range grid {
		grid[r] = make([]float64, cols)
		vr := sampleIndex(r, rows, side)
		for col := range grid[r] {
			vc := sampleIndex(col, cols, side)
			grid[r][col] = float64(c.Height(c.Index(uint32(vr), uint32(vc))))
		}
	}
	return grid
}

func sampleIndex(i, n, side int) int {
	if n == 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(side-1) / float64(n-1)))
}

// RenderHeightMap draws each cell as a colored block, low to high along the
// current theme's ramp.
func RenderHeightMap(grid [][]float64) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range grid {
		for _, h := range row {
			lo, hi = math.Min(lo, h), math.Max(hi, h)
		}
	}

	ramp := CurrentTheme.Ramp
	styles := make([]lipgloss.Style, len(ramp))
	for i, color := range ramp {
		styles[i] = lipgloss.NewStyle().Foreground(color)
	}

	var b strings.Builder
	for _, row := range grid {
		for _, h := range row {
			b.WriteString(styles[rampIndex(h, lo, hi, len(ramp))].Render("██"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func rampIndex(h, lo, hi float64, n int) int {
	if hi-lo < 1e-9 {
		return n - 1
	}
	i := int((h - lo) / (hi - lo) * float64(n))
	return max(0, min(i, n-1))
}

// PlotSeries renders a line graph of values.
func PlotSeries(values []float64, caption string, width, height int) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
