package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Energy averages the kinetic plus elastic energy over the observed ticks.
type Energy struct {
	name        string
	k           float64
	samples     int
	totalEnergy float64
}

func NewEnergy(springConstant float64) *Energy {
	return &Energy{
		name: "energy",
		k:    springConstant,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(c *cloth.Clothe, t float64) {
	e.totalEnergy += KineticEnergy(c) + SpringEnergy(c, e.k)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// PeakKinetic tracks the largest kinetic energy seen.
type PeakKinetic struct {
	name string
	peak float64
}

func NewPeakKinetic() *PeakKinetic {
	return &PeakKinetic{name: "peak_kinetic"}
}

func (p *PeakKinetic) Name() string { return p.name }

func (p *PeakKinetic) Observe(c *cloth.Clothe, t float64) {
	p.peak = math.Max(p.peak, KineticEnergy(c))
}

func (p *PeakKinetic) Value() float64 { return p.peak }
func (p *PeakKinetic) Reset()         { p.peak = 0 }
