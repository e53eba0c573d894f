package sim

import (
	"sync"

	"github.com/san-kum/clothsim/internal/cloth"
)

// BufferPool recycles interleaved vertex buffers of one cloth size.
type BufferPool struct {
	pool sync.Pool
	size int
}

func NewBufferPool(vertexCount int) *BufferPool {
	size := vertexCount * cloth.VertexStride
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float32, 0, size)
			},
		},
	}
}

func (p *BufferPool) Get() []float32 {
	return p.pool.Get().([]float32)[:0]
}

func (p *BufferPool) Put(b []float32) {
	if cap(b) == p.size {
		p.pool.Put(b[:0])
	}
}

// Fill returns a pooled buffer holding the cloth's current vertex attributes.
func (p *BufferPool) Fill(c *cloth.Clothe) []float32 {
	return c.AppendVertexBuffer(p.Get())
}
