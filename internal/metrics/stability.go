package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// Stability is the fraction of observed ticks where every spring stayed
// below threshold times its rest length and no vertex went non-finite.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(c *cloth.Clothe, t float64) {
	s.samples++
	if !Finite(c) || MaxStretch(c) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Stretch tracks the worst spring stretch ratio seen.
type Stretch struct {
	name  string
	worst float64
}

func NewStretch() *Stretch {
	return &Stretch{name: "max_stretch"}
}

func (s *Stretch) Name() string { return s.name }

func (s *Stretch) Observe(c *cloth.Clothe, t float64) {
	s.worst = math.Max(s.worst, MaxStretch(c))
}

func (s *Stretch) Value() float64 { return s.worst }
func (s *Stretch) Reset()         { s.worst = 0 }
