package cloth

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// SpringSlots is the fixed number of links held by every Spring record.
	SpringSlots = 12

	// Epsilon is the length below which a spring direction is treated as zero.
	Epsilon float32 = 1e-6

	// normals are cross products of tangents, so they scale with spacing squared
	normalEpsilon float32 = 1e-12
)

// Slot positions within a Spring record.
const (
	SlotTop = iota
	SlotBottom
	SlotLeft
	SlotRight
	SlotTopLeft
	SlotTopRight
	SlotBottomLeft
	SlotBottomRight
	SlotTwoLeft
	SlotTwoRight
	SlotTwoUp
	SlotTwoDown
)

// SpringKind groups slots by the deformation they resist.
type SpringKind int

const (
	Structural SpringKind = iota
	Shear
	Bend
)

func (k SpringKind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Shear:
		return "shear"
	case Bend:
		return "bend"
	default:
		return fmt.Sprintf("SpringKind(%d)", int(k))
	}
}

// KindOf returns the kind of the given slot.
func KindOf(slot int) SpringKind {
	switch {
	case slot < SlotTopLeft:
		return Structural
	case slot < SlotTwoLeft:
		return Shear
	default:
		return Bend
	}
}

// slotOffsets gives the (row, col) step from a vertex to the neighbor held in each slot.
var slotOffsets = [SpringSlots]struct{ dr, dc int }{
	SlotTop:         {-1, 0},
	SlotBottom:      {1, 0},
	SlotLeft:        {0, -1},
	SlotRight:       {0, 1},
	SlotTopLeft:     {-1, -1},
	SlotTopRight:    {-1, 1},
	SlotBottomLeft:  {1, -1},
	SlotBottomRight: {1, 1},
	SlotTwoLeft:     {0, -2},
	SlotTwoRight:    {0, 2},
	SlotTwoUp:       {-2, 0},
	SlotTwoDown:     {2, 0},
}

// Vertex is one point mass of the cloth.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	Velocity  mgl32.Vec3
	Resultant mgl32.Vec3
	TexCoord  mgl32.Vec2
}

// Spring holds the links of a single vertex. A slot whose link equals the
// owning vertex id (with a zero rest distance) is absent.
type Spring struct {
	Links           [SpringSlots]uint32
	RestDistance    [SpringSlots]float32
	CurrentDistance [SpringSlots]float32
}

// Present reports whether slot k links owner to another vertex.
func (s *Spring) Present(owner uint32, k int) bool {
	return s.Links[k] != owner
}

// Count returns the number of populated slots of the given kind.
func (s *Spring) Count(owner uint32, kind SpringKind) int {
	n := 0
	for k := 0; k < SpringSlots; k++ {
		if KindOf(k) == kind && s.Present(owner, k) {
			n++
		}
	}
	return n
}

// Stretch returns the largest current/rest ratio over the populated slots.
func (s *Spring) Stretch(owner uint32) float32 {
	var worst float32
	for k := 0; k < SpringSlots; k++ {
		if !s.Present(owner, k) || s.RestDistance[k] == 0 {
			continue
		}
		if r := s.CurrentDistance[k] / s.RestDistance[k]; r > worst {
			worst = r
		}
	}
	return worst
}

// Sphere is the static obstacle, re-supplied every tick.
type Sphere struct {
	Center         mgl32.Vec3
	Radius         float32
	FrictionFactor float32
}

// ComputeParams are the physics constants, re-supplied every tick.
type ComputeParams struct {
	SpringConstant float32
	DampingFactor  float32
	Gravity        float32
	DeltaTime      float32
}

func DefaultParams() ComputeParams {
	return ComputeParams{
		SpringConstant: 1000,
		DampingFactor:  0.1,
		Gravity:        9.81,
		DeltaTime:      0.01,
	}
}

// Axis names a world axis. The up axis fixes the plane the grid is laid out
// in and the direction gravity pulls against.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

func (a Axis) Valid() bool {
	return a >= AxisX && a <= AxisZ
}

// Unit returns the unit vector along a.
func (a Axis) Unit() mgl32.Vec3 {
	var v mgl32.Vec3
	v[a] = 1
	return v
}

// basis returns the in-plane directions of increasing column and row. They
// are chosen so that bottom×right points along +a, which makes the grid's
// triangle winding face up.
func (a Axis) basis() (col, row mgl32.Vec3) {
	switch a {
	case AxisX:
		return mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}
	case AxisZ:
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}
	default:
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}
	}
}

// ParseAxis accepts "x", "y" or "z" in any case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y", "":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteVec(v mgl32.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

func distance(a, b mgl32.Vec3) float32 {
	return a.Sub(b).Len()
}
