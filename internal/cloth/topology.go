package cloth

import "github.com/go-gl/mathgl/mgl32"

// maxSubdivisions keeps (N+1)² addressable by a uint32 index.
const maxSubdivisions = 65534

// topology is the output of laying out a grid.
type topology struct {
	vertices []Vertex
	indices  []uint32
	springs  []Spring
}

func validateTopology(length float32, subdivisions uint32) error {
	switch {
	case subdivisions == 0:
		return &TopologyError{Length: length, Subdivisions: subdivisions, Reason: "subdivisions must be at least 1"}
	case subdivisions > maxSubdivisions:
		return &TopologyError{Length: length, Subdivisions: subdivisions, Reason: "too many subdivisions"}
	case !finite(length) || length <= 0:
		return &TopologyError{Length: length, Subdivisions: subdivisions, Reason: "length must be positive"}
	}
	return nil
}

// buildTopology lays out an (n+1)×(n+1) grid centered on center, with the up
// coordinate of every vertex equal to center's.
func buildTopology(length float32, n uint32, center mgl32.Vec3, up Axis) topology {
	side := int(n) + 1
	count := side * side
	spacing := length / float32(n)
	half := length / 2
	colDir, rowDir := up.basis()
	normal := up.Unit()

	t := topology{
		vertices: make([]Vertex, count),
		indices:  make([]uint32, 0, int(n)*int(n)*6),
		springs:  make([]Spring, count),
	}

	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			offset := colDir.Mul(float32(col)*spacing - half).Add(rowDir.Mul(float32(row)*spacing - half))
			t.vertices[row*side+col] = Vertex{
				Position: center.Add(offset),
				Normal:   normal,
				TexCoord: mgl32.Vec2{float32(col) / float32(n), float32(row) / float32(n)},
			}
		}
	}

	for row := 0; row < side-1; row++ {
		for col := 0; col < side-1; col++ {
			topLeft := uint32(row*side + col)
			topRight := topLeft + 1
			bottomLeft := topLeft + uint32(side)
			bottomRight := bottomLeft + 1

			t.indices = append(t.indices,
				topRight, topLeft, bottomLeft,
				topRight, bottomLeft, bottomRight,
			)
		}
	}

	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			i := row*side + col
			t.springs[i] = linkSprings(t.vertices, side, row, col)
		}
	}

	return t
}

// linkSprings fills the record of the vertex at (row, col). Slots whose
// neighbor falls outside the grid keep the self-link sentinel.
func linkSprings(vertices []Vertex, side, row, col int) Spring {
	owner := uint32(row*side + col)
	var s Spring
	for k := 0; k < SpringSlots; k++ {
		s.Links[k] = owner

		r := row + slotOffsets[k].dr
		c := col + slotOffsets[k].dc
		if r < 0 || r >= side || c < 0 || c >= side {
			continue
		}

		j := uint32(r*side + c)
		s.Links[k] = j
		s.RestDistance[k] = distance(vertices[owner].Position, vertices[j].Position)
		s.CurrentDistance[k] = s.RestDistance[k]
	}
	return s
}
