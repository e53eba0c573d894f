package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/cloth"
)

// MeanHeight is the average vertex coordinate along the cloth's up axis.
func MeanHeight(c *cloth.Clothe) float64 {
	verts := c.Vertices()
	if len(verts) == 0 {
		return 0
	}
	up := c.UpAxis()
	sum := 0.0
	for i := range verts {
		sum += float64(verts[i].Position[up])
	}
	return sum / float64(len(verts))
}

// HeightRange returns the lowest and highest vertex along the up axis.
func HeightRange(c *cloth.Clothe) (lo, hi float64) {
	up := c.UpAxis()
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range c.Vertices() {
		h := float64(v.Position[up])
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	return lo, hi
}

func KineticEnergy(c *cloth.Clothe) float64 {
	m := float64(c.Mass())
	e := 0.0
	for _, v := range c.Vertices() {
		e += 0.5 * m * float64(v.Velocity.Dot(v.Velocity))
	}
	return e
}

// SpringEnergy is the elastic energy stored in the network for spring
// constant k. Each spring is held by both of its ends, so it is halved.
func SpringEnergy(c *cloth.Clothe, k float64) float64 {
	e := 0.0
	for i, s := range c.Springs() {
		owner := uint32(i)
		for slot := 0; slot < cloth.SpringSlots; slot++ {
			if !s.Present(owner, slot) {
				continue
			}
			dx := float64(s.CurrentDistance[slot] - s.RestDistance[slot])
			e += 0.25 * k * dx * dx
		}
	}
	return e
}

// MaxStretch is the largest current/rest ratio over every spring.
func MaxStretch(c *cloth.Clothe) float64 {
	worst := 0.0
	for i, s := range c.Springs() {
		worst = math.Max(worst, float64(s.Stretch(uint32(i))))
	}
	return worst
}

// MinClearance is the smallest distance from any vertex to the sphere surface.
func MinClearance(c *cloth.Clothe, s cloth.Sphere) float64 {
	best := math.Inf(1)
	for _, v := range c.Vertices() {
		d := float64(v.Position.Sub(s.Center).Len() - s.Radius)
		best = math.Min(best, d)
	}
	return best
}

// Finite reports whether every vertex position and velocity is finite.
func Finite(c *cloth.Clothe) bool {
	for _, v := range c.Vertices() {
		for a := 0; a < 3; a++ {
			p, vel := float64(v.Position[a]), float64(v.Velocity[a])
			if math.IsNaN(p) || math.IsInf(p, 0) || math.IsNaN(vel) || math.IsInf(vel, 0) {
				return false
			}
		}
	}
	return true
}
