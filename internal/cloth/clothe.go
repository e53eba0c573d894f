package cloth

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Dispatcher runs fn over [0, n) in one or more chunks and returns only
// after every chunk has finished.
type Dispatcher interface {
	Dispatch(n int, fn func(start, end int))
}

type serialDispatcher struct{}

func (serialDispatcher) Dispatch(n int, fn func(start, end int)) { fn(0, n) }

// Option configures a Clothe at construction.
type Option func(*options)

type options struct {
	mass       float32
	up         Axis
	dispatcher Dispatcher
	pinned     []uint32
}

// WithMass sets the mass of every vertex. The default is 1.
func WithMass(m float32) Option {
	return func(o *options) { o.mass = m }
}

// WithUpAxis sets the axis gravity pulls against. The grid is laid out in the
// plane perpendicular to it. The default is AxisY.
func WithUpAxis(a Axis) Option {
	return func(o *options) { o.up = a }
}

// WithDispatcher sets how each tick phase is spread over workers.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

// WithPinned holds the given vertices fixed.
func WithPinned(ids ...uint32) Option {
	return func(o *options) { o.pinned = append(o.pinned, ids...) }
}

// Clothe is a square mass-spring cloth.
type Clothe struct {
	length       float32
	subdivisions uint32
	center       mgl32.Vec3
	mass         float32
	up           Axis

	vertices []Vertex
	indices  []uint32
	springs  []Spring
	prev     []mgl32.Vec3
	pinned   []bool

	dispatcher Dispatcher
	ticks      uint64
}

// New builds a cloth of the given side length split into subdivisions cells
// per side, centered on center.
func New(length float32, subdivisions uint32, center mgl32.Vec3, opts ...Option) (*Clothe, error) {
	o := options{mass: 1, up: AxisY, dispatcher: serialDispatcher{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateTopology(length, subdivisions); err != nil {
		return nil, err
	}
	if !finiteVec(center) {
		return nil, &TopologyError{Length: length, Subdivisions: subdivisions, Reason: "center must be finite"}
	}
	if !finite(o.mass) || o.mass <= 0 {
		return nil, &TopologyError{Length: length, Subdivisions: subdivisions, Reason: fmt.Sprintf("mass must be positive, got %g", o.mass)}
	}
	if !o.up.Valid() {
		return nil, &TopologyError{Length: length, Subdivisions: subdivisions, Reason: fmt.Sprintf("unknown up axis %v", o.up)}
	}

	t := buildTopology(length, subdivisions, center, o.up)
	c := &Clothe{
		length:       length,
		subdivisions: subdivisions,
		center:       center,
		mass:         o.mass,
		up:           o.up,
		vertices:     t.vertices,
		indices:      t.indices,
		springs:      t.springs,
		prev:         make([]mgl32.Vec3, len(t.vertices)),
		pinned:       make([]bool, len(t.vertices)),
		dispatcher:   o.dispatcher,
	}

	for _, id := range o.pinned {
		if int(id) >= len(c.vertices) {
			return nil, &TopologyError{Length: length, Subdivisions: subdivisions, Reason: fmt.Sprintf("pinned vertex %d out of range", id)}
		}
		c.pinned[id] = true
	}

	c.recomputeNormals(0, len(c.vertices))
	return c, nil
}

// Step advances the cloth by dt. The request is validated before anything is
// mutated; a rejected tick leaves the cloth exactly as it was.
func (c *Clothe) Step(dt float32, sphere Sphere, params ComputeParams) error {
	if err := c.validateTick(dt, sphere, params); err != nil {
		return err
	}

	n := len(c.vertices)
	c.dispatcher.Dispatch(n, c.updateDistances)
	c.dispatcher.Dispatch(n, func(start, end int) {
		c.integrate(start, end, dt, sphere, params)
	})
	c.dispatcher.Dispatch(n, c.recomputeNormals)

	c.ticks++
	return nil
}

func (c *Clothe) validateTick(dt float32, sphere Sphere, params ComputeParams) error {
	reject := func(reason string) error {
		return &TickError{Tick: c.ticks, DeltaTime: dt, Reason: reason}
	}

	switch {
	case !finite(dt):
		return reject("delta time must be finite")
	case dt <= 0:
		return reject("delta time must be positive")
	case !finiteVec(sphere.Center) || !finite(sphere.Radius) || !finite(sphere.FrictionFactor):
		return reject("sphere must be finite")
	case !finite(params.SpringConstant) || !finite(params.DampingFactor) || !finite(params.Gravity):
		return reject("compute params must be finite")
	}
	return nil
}

// Pin holds vertex id fixed from the next tick on.
func (c *Clothe) Pin(id uint32) error {
	if int(id) >= len(c.vertices) {
		return fmt.Errorf("pin vertex %d: out of range [0, %d)", id, len(c.vertices))
	}
	c.pinned[id] = true
	return nil
}

// Unpin releases a pinned vertex.
func (c *Clothe) Unpin(id uint32) error {
	if int(id) >= len(c.vertices) {
		return fmt.Errorf("unpin vertex %d: out of range [0, %d)", id, len(c.vertices))
	}
	c.pinned[id] = false
	return nil
}

func (c *Clothe) IsPinned(id uint32) bool {
	return int(id) < len(c.pinned) && c.pinned[id]
}

// Pinned returns the ids of all pinned vertices in ascending order.
func (c *Clothe) Pinned() []uint32 {
	var ids []uint32
	for i, p := range c.pinned {
		if p {
			ids = append(ids, uint32(i))
		}
	}
	return ids
}

// Index returns the vertex id at the given grid row and column.
func (c *Clothe) Index(row, col uint32) uint32 {
	return row*(c.subdivisions+1) + col
}

// Vertices returns the live vertex array. Callers must not modify it.
func (c *Clothe) Vertices() []Vertex { return c.vertices }

// Springs returns the live spring array. Callers must not modify it.
func (c *Clothe) Springs() []Spring { return c.springs }

// Snapshot returns a copy of the vertex array.
func (c *Clothe) Snapshot() []Vertex {
	out := make([]Vertex, len(c.vertices))
	copy(out, c.vertices)
	return out
}

func (c *Clothe) VertexCount() int     { return len(c.vertices) }
func (c *Clothe) IndexCount() int      { return len(c.indices) }
func (c *Clothe) Length() float32      { return c.length }
func (c *Clothe) Subdivisions() uint32 { return c.subdivisions }
func (c *Clothe) Center() mgl32.Vec3   { return c.center }
func (c *Clothe) Mass() float32        { return c.mass }
func (c *Clothe) UpAxis() Axis         { return c.up }
func (c *Clothe) Ticks() uint64        { return c.ticks }

// Height returns the coordinate of vertex id along the up axis.
func (c *Clothe) Height(id uint32) float32 {
	return c.vertices[id].Position[c.up]
}
