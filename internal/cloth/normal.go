package cloth

import "github.com/go-gl/mathgl/mgl32"

// recomputeNormals rebuilds the shading normal of vertices [start, end) from
// the tangents to their structural neighbors.
func (c *Clothe) recomputeNormals(start, end int) {
	ref := c.up.Unit()
	for i := start; i < end; i++ {
		s := &c.springs[i]
		owner := uint32(i)
		p := c.vertices[i].Position

		bottom, hasBottom := c.tangent(s, owner, p, SlotBottom)
		right, hasRight := c.tangent(s, owner, p, SlotRight)
		top, hasTop := c.tangent(s, owner, p, SlotTop)
		left, hasLeft := c.tangent(s, owner, p, SlotLeft)

		var n mgl32.Vec3
		if hasBottom && hasRight {
			n = n.Add(bottom.Cross(right))
		}
		if hasRight && hasTop {
			n = n.Add(right.Cross(top))
		}
		if hasTop && hasLeft {
			n = n.Add(top.Cross(left))
		}
		if hasLeft && hasBottom {
			n = n.Add(left.Cross(bottom))
		}

		if l := n.Len(); l > normalEpsilon && finite(l) {
			c.vertices[i].Normal = n.Mul(1 / l)
		} else {
			c.vertices[i].Normal = ref
		}
	}
}

func (c *Clothe) tangent(s *Spring, owner uint32, p mgl32.Vec3, slot int) (mgl32.Vec3, bool) {
	n := s.Links[slot]
	if n == owner {
		return mgl32.Vec3{}, false
	}
	return c.vertices[n].Position.Sub(p), true
}
