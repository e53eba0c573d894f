package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/clothsim/internal/cloth"
)

var far = cloth.Sphere{Center: mgl32.Vec3{0, -100, 0}, Radius: 1}

func newCloth(t *testing.T, n uint32, opts ...cloth.Option) *cloth.Clothe {
	t.Helper()
	c, err := cloth.New(1, n, mgl32.Vec3{0, 2, 0}, opts...)
	if err != nil {
		t.Fatalf("cloth.New failed: %v", err)
	}
	return c
}

func TestMeasuresAtRest(t *testing.T) {
	c := newCloth(t, 4)

	if h := MeanHeight(c); math.Abs(h-2) > 1e-6 {
		t.Errorf("expected mean height 2, got %f", h)
	}
	lo, hi := HeightRange(c)
	if lo != 2 || hi != 2 {
		t.Errorf("expected flat range [2, 2], got [%f, %f]", lo, hi)
	}
	if e := KineticEnergy(c); e != 0 {
		t.Errorf("expected zero kinetic energy, got %f", e)
	}
	if e := SpringEnergy(c, 1000); e != 0 {
		t.Errorf("expected zero spring energy, got %f", e)
	}
	if s := MaxStretch(c); s != 1 {
		t.Errorf("expected stretch 1, got %f", s)
	}
	if d := MinClearance(c, cloth.Sphere{Radius: 1}); math.Abs(d-1) > 1e-6 {
		t.Errorf("expected clearance 1, got %f", d)
	}
	if !Finite(c) {
		t.Error("expected finite cloth")
	}
}

func TestEnergyReset(t *testing.T) {
	c := newCloth(t, 2)
	params := cloth.ComputeParams{SpringConstant: 100, Gravity: 9.81}
	if err := c.Step(0.01, far, params); err != nil {
		t.Fatal(err)
	}

	m := NewEnergy(100)
	m.Observe(c, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestPeakKinetic(t *testing.T) {
	c := newCloth(t, 2)
	m := NewPeakKinetic()
	params := cloth.ComputeParams{Gravity: 10}

	for i := 0; i < 5; i++ {
		if err := c.Step(0.1, far, params); err != nil {
			t.Fatal(err)
		}
		m.Observe(c, float64(i))
	}

	// 9 vertices in free fall for 0.5s: v = 5, KE = 9 * 0.5 * 25
	if math.Abs(m.Value()-112.5) > 1e-3 {
		t.Errorf("expected peak kinetic 112.5, got %f", m.Value())
	}
}

func TestSagAndClearance(t *testing.T) {
	c := newCloth(t, 2)
	sphere := cloth.Sphere{Radius: 1.5}
	sag := NewSag()
	clear := NewClearance(sphere)
	params := cloth.ComputeParams{SpringConstant: 500, Gravity: 9.81}

	for i := 0; i < 100; i++ {
		sag.Observe(c, float64(i))
		clear.Observe(c, float64(i))
		if err := c.Step(0.01, sphere, params); err != nil {
			t.Fatal(err)
		}
	}

	if sag.Value() <= 0 {
		t.Errorf("expected positive sag, got %f", sag.Value())
	}
	if clear.Value() < -1e-4 || clear.Value() > 0.1 {
		t.Errorf("expected the cloth to settle on the sphere, clearance %f", clear.Value())
	}

	clear.Reset()
	if clear.Value() != 0 {
		t.Error("expected zero clearance after reset")
	}
}

func TestStabilityAndStretch(t *testing.T) {
	c := newCloth(t, 3, cloth.WithPinned(0))
	stab := NewStability(1.5)
	stretch := NewStretch()
	params := cloth.DefaultParams()

	for i := 0; i < 200; i++ {
		if err := c.Step(params.DeltaTime, far, params); err != nil {
			t.Fatal(err)
		}
		stab.Observe(c, float64(i))
		stretch.Observe(c, float64(i))
	}

	if stab.Value() != 1 {
		t.Errorf("expected fully stable run, got %f", stab.Value())
	}
	if stretch.Value() <= 1 || stretch.Value() > 1.5 {
		t.Errorf("expected bounded stretch above rest, got %f", stretch.Value())
	}

	stab.Reset()
	if stab.Value() != 1 {
		t.Error("expected stability 1 after reset")
	}
}
