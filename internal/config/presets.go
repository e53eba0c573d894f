package config

import "sort"

var Presets = map[string]*Config{
	"drape": {
		Cloth:  ClothConfig{Length: 2, Subdivisions: 24, Center: [3]float32{0, 1, 0}, Mass: 1, UpAxis: "y"},
		Sphere: SphereConfig{Radius: 0.6, Friction: 0.3},
		Params: ParamsConfig{SpringConstant: 1000, Damping: 0.1, Gravity: 9.81, Dt: 0.005},
		Run:    RunConfig{Duration: 4, Backend: "auto", SampleEvery: 10},
	},
	"hang": {
		Cloth: ClothConfig{
			Length: 1, Subdivisions: 16, Mass: 1, UpAxis: "y",
			PinCorners: []string{"top_left", "top_right"},
		},
		Sphere: SphereConfig{Center: [3]float32{0, -50, 0}, Radius: 1},
		Params: ParamsConfig{SpringConstant: 1000, Damping: 0.2, Gravity: 9.81, Dt: 0.005},
		Run:    RunConfig{Duration: 6, Backend: "auto", SampleEvery: 10},
	},
	"curtain": {
		Cloth: ClothConfig{
			Length: 1.5, Subdivisions: 20, Center: [3]float32{0, 0, 0}, Mass: 1, UpAxis: "y",
			PinCorners: []string{"top_edge"},
		},
		Sphere: SphereConfig{Center: [3]float32{0, -0.9, 0.3}, Radius: 0.35, Friction: 0.5},
		Params: ParamsConfig{SpringConstant: 1200, Damping: 0.3, Gravity: 9.81, Dt: 0.004},
		Run:    RunConfig{Duration: 5, Backend: "auto", SampleEvery: 10},
	},
	"single_cell": {
		Cloth: ClothConfig{
			Length: 1, Subdivisions: 1, Mass: 1, UpAxis: "y",
			PinCorners: []string{"top_left"},
		},
		Sphere: SphereConfig{Center: [3]float32{0, -100, 0}, Radius: 1},
		Params: ParamsConfig{SpringConstant: 1000, Damping: 0.1, Gravity: 9.81, Dt: 0.01},
		Run:    RunConfig{Duration: 10, Backend: "serial", SampleEvery: 1},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
