package viz

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors the height map from low to high and styles the side panel.
type Theme struct {
	Name   string
	Ramp   []lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
	Text   lipgloss.Color
}

var (
	ThemeOcean = Theme{
		Name:   "ocean",
		Ramp:   []lipgloss.Color{"#0b1d51", "#1f4e9c", "#2f8fd0", "#5fd4e8", "#c8f7ff"},
		Accent: "#00ccff",
		Muted:  "#666688",
		Text:   "#ffffff",
	}

	ThemeHeat = Theme{
		Name:   "heat",
		Ramp:   []lipgloss.Color{"#2b0000", "#8b0000", "#e34a00", "#ffa500", "#fff2a0"},
		Accent: "#ffaa00",
		Muted:  "#886655",
		Text:   "#ffffff",
	}

	ThemeMono = Theme{
		Name:   "mono",
		Ramp:   []lipgloss.Color{"#222222", "#555555", "#888888", "#bbbbbb", "#eeeeee"},
		Accent: "#ffffff",
		Muted:  "#777777",
		Text:   "#dddddd",
	}
)

var themes = map[string]Theme{
	ThemeOcean.Name: ThemeOcean,
	ThemeHeat.Name:  ThemeHeat,
	ThemeMono.Name:  ThemeMono,
}

// CurrentTheme is used by every renderer in the package.
var CurrentTheme = ThemeOcean

func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return ThemeOcean
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
