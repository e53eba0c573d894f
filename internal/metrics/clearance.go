package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Clearance tracks the smallest vertex-to-surface distance seen. A value
// near zero means the cloth rested on the sphere.
type Clearance struct {
	name   string
	sphere cloth.Sphere
	best   float64
}

func NewClearance(sphere cloth.Sphere) *Clearance {
	return &Clearance{
		name:   "min_clearance",
		sphere: sphere,
		best:   math.Inf(1),
	}
}

func (c *Clearance) Name() string { return c.name }

func (c *Clearance) Observe(cl *cloth.Clothe, t float64) {
	c.best = math.Min(c.best, MinClearance(cl, c.sphere))
}

func (c *Clearance) Value() float64 {
	if math.IsInf(c.best, 1) {
		return 0
	}
	return c.best
}

func (c *Clearance) Reset() { c.best = math.Inf(1) }

// Sag tracks how far the mean height has dropped below its first observation.
type Sag struct {
	name    string
	initial float64
	lowest  float64
	samples int
}

func NewSag() *Sag {
	return &Sag{name: "sag"}
}

func (s *Sag) Name() string { return s.name }

func (s *Sag) Observe(c *cloth.Clothe, t float64) {
	h := MeanHeight(c)
	if s.samples == 0 {
		s.initial, s.lowest = h, h
	}
	s.lowest = math.Min(s.lowest, h)
	s.samples++
}

func (s *Sag) Value() float64 { return s.initial - s.lowest }

func (s *Sag) Reset() {
	s.initial, s.lowest = 0, 0
	s.samples = 0
}
