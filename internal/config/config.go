package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLength         = 2.0
	DefaultSubdivisions   = 24
	DefaultMass           = 1.0
	DefaultSpringConstant = 1000.0
	DefaultDamping        = 0.1
	DefaultGravity        = 9.81
	DefaultDt             = 0.005
	DefaultDuration       = 5.0
	DefaultSphereRadius   = 0.6
	DefaultFriction       = 0.3
	DefaultSampleEvery    = 10
)

type Config struct {
	Cloth  ClothConfig  `yaml:"cloth"`
	Sphere SphereConfig `yaml:"sphere"`
	Params ParamsConfig `yaml:"params"`
	Run    RunConfig    `yaml:"run"`
}

type ClothConfig struct {
	Length       float32    `yaml:"length"`
	Subdivisions uint32     `yaml:"subdivisions"`
	Center       [3]float32 `yaml:"center,flow"`
	Mass         float32    `yaml:"mass"`
	UpAxis       string     `yaml:"up_axis"`
	Pinned       []uint32   `yaml:"pinned,omitempty,flow"`
	PinCorners   []string   `yaml:"pin_corners,omitempty,flow"`
}

type SphereConfig struct {
	Center   [3]float32 `yaml:"center,flow"`
	Radius   float32    `yaml:"radius"`
	Friction float32    `yaml:"friction"`
}

type ParamsConfig struct {
	SpringConstant float32 `yaml:"spring_constant"`
	Damping        float32 `yaml:"damping"`
	Gravity        float32 `yaml:"gravity"`
	Dt             float32 `yaml:"dt"`
}

type RunConfig struct {
	Duration    float64 `yaml:"duration"`
	Backend     string  `yaml:"backend"`
	Workers     int     `yaml:"workers"`
	SampleEvery int     `yaml:"sample_every"`
}

func DefaultConfig() *Config {
	return &Config{
		Cloth: ClothConfig{
			Length:       DefaultLength,
			Subdivisions: DefaultSubdivisions,
			Center:       [3]float32{0, 1, 0},
			Mass:         DefaultMass,
			UpAxis:       "y",
		},
		Sphere: SphereConfig{
			Radius:   DefaultSphereRadius,
			Friction: DefaultFriction,
		},
		Params: ParamsConfig{
			SpringConstant: DefaultSpringConstant,
			Damping:        DefaultDamping,
			Gravity:        DefaultGravity,
			Dt:             DefaultDt,
		},
		Run: RunConfig{
			Duration:    DefaultDuration,
			Backend:     "auto",
			SampleEvery: DefaultSampleEvery,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be tweaked without touching the
// shared table.
func (c *Config) Clone() *Config {
	out := *c
	out.Cloth.Pinned = append([]uint32(nil), c.Cloth.Pinned...)
	out.Cloth.PinCorners = append([]string(nil), c.Cloth.PinCorners...)
	return &out
}

func (c *Config) Validate() error {
	if c.Cloth.Subdivisions == 0 {
		return fmt.Errorf("cloth.subdivisions must be at least 1")
	}
	if c.Cloth.Length <= 0 {
		return fmt.Errorf("cloth.length must be positive, got %g", c.Cloth.Length)
	}
	if c.Cloth.Mass <= 0 {
		return fmt.Errorf("cloth.mass must be positive, got %g", c.Cloth.Mass)
	}
	if _, err := cloth.ParseAxis(c.Cloth.UpAxis); err != nil {
		return fmt.Errorf("cloth.up_axis: %w", err)
	}
	for _, name := range c.Cloth.PinCorners {
		if _, ok := corners[name]; !ok {
			return fmt.Errorf("cloth.pin_corners: unknown corner %q", name)
		}
	}
	if c.Sphere.Radius < 0 {
		return fmt.Errorf("sphere.radius must not be negative, got %g", c.Sphere.Radius)
	}
	if c.Sphere.Friction < 0 || c.Sphere.Friction > 1 {
		return fmt.Errorf("sphere.friction must be within [0, 1], got %g", c.Sphere.Friction)
	}
	if c.Params.Dt <= 0 {
		return fmt.Errorf("params.dt must be positive, got %g", c.Params.Dt)
	}
	if c.Run.Duration <= 0 {
		return fmt.Errorf("run.duration must be positive, got %g", c.Run.Duration)
	}
	if c.Run.SampleEvery < 0 {
		return fmt.Errorf("run.sample_every must not be negative")
	}
	return nil
}

// corners maps a name to a function giving the pinned vertices for a grid of n subdivisions.
var corners = map[string]func(n uint32) []uint32{
	"top_left":     func(n uint32) []uint32 { return []uint32{0} },
	"top_right":    func(n uint32) []uint32 { return []uint32{n} },
	"bottom_left":  func(n uint32) []uint32 { return []uint32{n * (n + 1)} },
	"bottom_right": func(n uint32) []uint32 { return []uint32{(n+1)*(n+1) - 1} },
	"top_edge": func(n uint32) []uint32 {
		ids := make([]uint32, n+1)
		for i := range ids {
			ids[i] = uint32(i)
		}
		return ids
	},
}

// PinnedIDs resolves Pinned and PinCorners into vertex ids.
func (c *Config) PinnedIDs() []uint32 {
	ids := append([]uint32(nil), c.Cloth.Pinned...)
	for _, name := range c.Cloth.PinCorners {
		if fn, ok := corners[name]; ok {
			ids = append(ids, fn(c.Cloth.Subdivisions)...)
		}
	}
	return ids
}

// NewCloth builds the configured cloth, spreading ticks over d.
func (c *Config) NewCloth(d cloth.Dispatcher) (*cloth.Clothe, error) {
	up, err := cloth.ParseAxis(c.Cloth.UpAxis)
	if err != nil {
		return nil, err
	}
	return cloth.New(c.Cloth.Length, c.Cloth.Subdivisions, mgl32.Vec3(c.Cloth.Center),
		cloth.WithMass(c.Cloth.Mass),
		cloth.WithUpAxis(up),
		cloth.WithDispatcher(d),
		cloth.WithPinned(c.PinnedIDs()...),
	)
}

// Obstacle returns the configured sphere.
func (c *Config) Obstacle() cloth.Sphere {
	return cloth.Sphere{
		Center:         mgl32.Vec3(c.Sphere.Center),
		Radius:         c.Sphere.Radius,
		FrictionFactor: c.Sphere.Friction,
	}
}

func (c *Config) ComputeParams() cloth.ComputeParams {
	return cloth.ComputeParams{
		SpringConstant: c.Params.SpringConstant,
		DampingFactor:  c.Params.Damping,
		Gravity:        c.Params.Gravity,
		DeltaTime:      c.Params.Dt,
	}
}

// SimConfig returns the run settings for a Simulator.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Dt:          c.Params.Dt,
		Duration:    c.Run.Duration,
		SampleEvery: c.Run.SampleEvery,
		Sphere:      c.Obstacle(),
		Params:      c.ComputeParams(),
	}
}

// Steps is the number of ticks needed to cover Run.Duration.
func (c *Config) Steps() int {
	return int(math.Round(c.Run.Duration / float64(c.Params.Dt)))
}

// GetParams exposes the tunable physics constants by name.
func (c *Config) GetParams() map[string]float64 {
	return map[string]float64{
		"spring_constant": float64(c.Params.SpringConstant),
		"damping":         float64(c.Params.Damping),
		"gravity":         float64(c.Params.Gravity),
		"friction":        float64(c.Sphere.Friction),
		"radius":          float64(c.Sphere.Radius),
		"mass":            float64(c.Cloth.Mass),
	}
}

// SetParam sets one of the constants listed by GetParams.
func (c *Config) SetParam(name string, value float64) error {
	v := float32(value)
	switch name {
	case "spring_constant":
		c.Params.SpringConstant = v
	case "damping":
		c.Params.Damping = v
	case "gravity":
		c.Params.Gravity = v
	case "friction":
		c.Sphere.Friction = v
	case "radius":
		c.Sphere.Radius = v
	case "mass":
		c.Cloth.Mass = v
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}
