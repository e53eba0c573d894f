package cloth

import (
	"fmt"
	"math"
)

// VertexStride is the number of float32 values per vertex in VertexBuffer:
// position (3), normal (3), texture coordinate (2).
const VertexStride = 8

// VertexBuffer returns the interleaved render attributes of every vertex, in
// the order the index buffer addresses them.
func (c *Clothe) VertexBuffer() []float32 {
	return c.AppendVertexBuffer(make([]float32, 0, len(c.vertices)*VertexStride))
}

// AppendVertexBuffer appends the interleaved vertex attributes to dst.
func (c *Clothe) AppendVertexBuffer(dst []float32) []float32 {
	for i := range c.vertices {
		v := &c.vertices[i]
		dst = append(dst,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.TexCoord[0], v.TexCoord[1],
		)
	}
	return dst
}

// Indices returns the triangle index buffer. Callers must not modify it.
func (c *Clothe) Indices() []uint32 { return c.indices }

// Indices16 returns the index buffer narrowed to 16 bits. It fails when the
// highest vertex id does not fit.
func (c *Clothe) Indices16() ([]uint16, error) {
	if len(c.vertices)-1 > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d vertices", ErrIndexOverflow, len(c.vertices))
	}
	out := make([]uint16, len(c.indices))
	for i, idx := range c.indices {
		out[i] = uint16(idx)
	}
	return out, nil
}
