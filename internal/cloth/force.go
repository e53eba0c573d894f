package cloth

import "github.com/go-gl/mathgl/mgl32"

// integrate advances vertices [start, end) by dt. Neighbor positions are read
// from the copy taken in the distance phase, so a vertex never observes
// another vertex's update from the same tick.
func (c *Clothe) integrate(start, end int, dt float32, sphere Sphere, params ComputeParams) {
	invMass := 1 / c.mass
	for i := start; i < end; i++ {
		v := &c.vertices[i]
		if c.pinned[i] {
			v.Velocity = mgl32.Vec3{}
			v.Resultant = mgl32.Vec3{}
			continue
		}

		v.Resultant = c.springForce(i, params.SpringConstant)
		v.Resultant[c.up] -= c.mass * params.Gravity

		accel := v.Resultant.Mul(invMass)
		vel := v.Velocity.Add(accel.Mul(dt)).Sub(v.Velocity.Mul(params.DampingFactor * dt))
		pos := v.Position.Add(vel.Mul(dt))

		v.Position, v.Velocity = collide(pos, vel, sphere, c.up)
		v.Resultant = mgl32.Vec3{}
	}
}

// springForce sums Hooke forces over the populated slots of vertex i.
func (c *Clothe) springForce(i int, k float32) mgl32.Vec3 {
	s := &c.springs[i]
	owner := uint32(i)
	p := c.prev[i]

	var f mgl32.Vec3
	for slot := 0; slot < SpringSlots; slot++ {
		n := s.Links[slot]
		if n == owner {
			continue
		}
		d := s.CurrentDistance[slot]
		if d < Epsilon {
			continue
		}
		dir := p.Sub(c.prev[n]).Mul(1 / d)
		f = f.Add(dir.Mul(-k * (d - s.RestDistance[slot])))
	}
	return f
}

// collide projects a candidate position that lies inside the sphere back onto
// its surface. The radial velocity is dropped and the tangential part is
// scaled by 1 - friction.
func collide(pos, vel mgl32.Vec3, sphere Sphere, up Axis) (mgl32.Vec3, mgl32.Vec3) {
	offset := pos.Sub(sphere.Center)
	dist := offset.Len()
	if dist > sphere.Radius {
		return pos, vel
	}

	normal := up.Unit()
	if dist >= Epsilon {
		normal = offset.Mul(1 / dist)
	}

	radial := normal.Mul(vel.Dot(normal))
	tangential := vel.Sub(radial)

	return sphere.Center.Add(normal.Mul(sphere.Radius)), tangential.Mul(1 - sphere.FrictionFactor)
}
