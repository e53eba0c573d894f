package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/clothsim/internal/cloth"
)

// Camera projects world points onto a canvas. It orbits the origin.
type Camera struct {
	Distance   float32
	RotX, RotY float32
	Zoom       float32
}

func NewCamera() *Camera {
	return &Camera{Distance: 6, RotX: 0.5, RotY: 0.6, Zoom: 1}
}

func (c *Camera) RotateX(a float32) { c.RotX += a }
func (c *Camera) RotateY(a float32) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = float32(math.Min(10, float64(c.Zoom*1.2))) }
func (c *Camera) ZoomOut()          { c.Zoom = float32(math.Max(0.1, float64(c.Zoom/1.2))) }

func (c *Camera) view() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(c.RotX).Mul4(mgl32.HomogRotate3DY(c.RotY))
}

// Project maps p to dot coordinates on a w×h dot grid. ok is false for
// points behind the camera.
func (c *Camera) Project(p mgl32.Vec3, w, h int) (x, y int, depth float32, ok bool) {
	r := mgl32.TransformCoordinate(p, c.view()).Mul(c.Zoom)
	depth = c.Distance - r.Z()
	if depth <= 0.1 {
		return 0, 0, depth, false
	}

	scale := float32(min(w, h)) / 3 * c.Distance / depth
	x = int(r.X()*scale) + w/2
	y = int(-r.Y()*scale) + h/2
	return x, y, depth, true
}

// Edges returns the structural edges of the cloth as vertex id pairs.
func Edges(c *cloth.Clothe) [][2]uint32 {
	springs := c.Springs()
	edges := make([][2]uint32, 0, 2*len(springs))
	for i := range springs {
		id := uint32(i)
		for _, slot := range []int{cloth.SlotRight, cloth.SlotBottom} {
			if springs[i].Present(id, slot) {
				edges = append(edges, [2]uint32{id, springs[i].Links[slot]})
			}
		}
	}
	return edges
}

// RenderWireframe draws the cloth's structural edges, shifted so that
// origin sits at the center of the view.
func RenderWireframe(cv *Canvas, c *cloth.Clothe, cam *Camera, origin mgl32.Vec3) {
	w, h := cv.Dots()
	vs := c.Vertices()
	for _, e := range Edges(c) {
		x0, y0, _, ok0 := cam.Project(vs[e[0]].Position.Sub(origin), w, h)
		x1, y1, _, ok1 := cam.Project(vs[e[1]].Position.Sub(origin), w, h)
		if ok0 && ok1 {
			cv.DrawLine(x0, y0, x1, y1)
		}
	}
}

// RenderSphere outlines the obstacle as a projected circle.
func RenderSphere(cv *Canvas, s cloth.Sphere, cam *Camera, origin mgl32.Vec3) {
	w, h := cv.Dots()
	const segments = 48
	center := s.Center.Sub(origin)
	inv := cam.view().Inv()
	right := mgl32.TransformNormal(mgl32.Vec3{1, 0, 0}, inv).Mul(s.Radius)
	up := mgl32.TransformNormal(mgl32.Vec3{0, 1, 0}, inv).Mul(s.Radius)

	var px, py int
	for i := 0; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		p := center.Add(right.Mul(float32(math.Cos(a)))).Add(up.Mul(float32(math.Sin(a))))
		x, y, _, ok := cam.Project(p, w, h)
		if ok && i > 0 {
			cv.DrawLine(px, py, x, y)
		}
		px, py = x, y
	}
}
