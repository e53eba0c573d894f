package cloth

// updateDistances measures every populated spring of vertices [start, end)
// and records each vertex's position for the force phase to read.
func (c *Clothe) updateDistances(start, end int) {
	for i := start; i < end; i++ {
		s := &c.springs[i]
		p := c.vertices[i].Position
		owner := uint32(i)

		c.prev[i] = p
		for k := 0; k < SpringSlots; k++ {
			n := s.Links[k]
			if n == owner {
				continue
			}
			s.CurrentDistance[k] = distance(p, c.vertices[n].Position)
		}
	}
}
