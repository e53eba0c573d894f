package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/clothsim/internal/cloth"
)

// ErrDiverged indicates a vertex position or velocity went non-finite.
var ErrDiverged = errors.New("sim: cloth diverged (NaN or Inf detected)")

type Metric interface {
	Name() string
	Observe(c *cloth.Clothe, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(c *cloth.Clothe, t float64)
}

type Config struct {
	Dt          float32
	Duration    float64
	SampleEvery int
	Sphere      cloth.Sphere
	Params      cloth.ComputeParams
}

func DefaultConfig() Config {
	params := cloth.DefaultParams()
	return Config{
		Dt:          params.DeltaTime,
		Duration:    5.0,
		SampleEvery: 10,
		Sphere:      cloth.Sphere{Radius: 0.6, FrictionFactor: 0.3},
		Params:      params,
	}
}

// Frame summarizes the cloth at one sampled tick.
type Frame struct {
	Time       float64
	MeanHeight float64
	MinHeight  float64
	MaxHeight  float64
	Kinetic    float64
	MaxStretch float64
	Clearance  float64
}

type Snapshot struct {
	Time     float64
	Vertices []cloth.Vertex
}

type Result struct {
	Frames     []Frame
	Snapshots  []Snapshot
	Final      []cloth.Vertex
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Heights returns the mean height of every frame.
func (r *Result) Heights() []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.MeanHeight
	}
	return out
}

// Times returns the time of every frame.
func (r *Result) Times() []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Time
	}
	return out
}

type SimError struct {
	Time    float64
	Step    int
	Message string
	Wrapped error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return e.Wrapped
}
