package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/clothsim/internal/cloth"
	"github.com/san-kum/clothsim/internal/sim"
)

// Frame is the wire form of one cloth state. Positions and normals are flat
// xyz triples in vertex order.
type Frame struct {
	Tick      uint64    `json:"tick"`
	Time      float64   `json:"time"`
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices,omitempty"`
}

func NewFrame(c *cloth.Clothe, t float64, withIndices bool) Frame {
	vs := c.Vertices()
	f := Frame{
		Tick:      c.Ticks(),
		Time:      t,
		Positions: make([]float32, 0, len(vs)*3),
		Normals:   make([]float32, 0, len(vs)*3),
	}
	for i := range vs {
		f.Positions = append(f.Positions, vs[i].Position[:]...)
		f.Normals = append(f.Normals, vs[i].Normal[:]...)
	}
	if withIndices {
		f.Indices = c.Indices()
	}
	return f
}

type RunData struct {
	Preset   string             `json:"preset"`
	Dt       float32            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Frames   []FrameSummary     `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

type FrameSummary struct {
	Time       float64 `json:"time"`
	MeanHeight float64 `json:"mean_height"`
	MinHeight  float64 `json:"min_height"`
	MaxHeight  float64 `json:"max_height"`
	Kinetic    float64 `json:"kinetic"`
	MaxStretch float64 `json:"max_stretch"`
	Clearance  float64 `json:"clearance"`
}

func NewRunData(preset string, cfg sim.Config, result *sim.Result) RunData {
	data := RunData{
		Preset:   preset,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Steps:    result.StepsTaken,
		Frames:   make([]FrameSummary, len(result.Frames)),
		Metrics:  result.Metrics,
	}
	for i, f := range result.Frames {
		data.Frames[i] = FrameSummary(f)
	}
	return data
}

func WriteJSON(w io.Writer, data RunData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data RunData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}
