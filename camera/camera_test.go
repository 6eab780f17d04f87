package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewDefaults(t *testing.T) {
	c := New(16.0 / 9.0)
	if got := c.Position(); !got.ApproxEqual(mgl32.Vec3{0, 0, 3}) {
		t.Errorf("default position = %v, want (0,0,3)", got)
	}
	if got := c.Target(); !got.ApproxEqual(mgl32.Vec3{0, 0, 0}) {
		t.Errorf("default target = %v, want origin", got)
	}
	if got := c.Distance(); math.Abs(float64(got)-3) > 1e-6 {
		t.Errorf("default distance = %v, want 3", got)
	}
}

func TestViewMatrixTransformsTargetToViewAxis(t *testing.T) {
	c := New(1)
	c.SetPosition(0, 0, 5)

	// The target must land on the negative view-space Z axis.
	v := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if math.Abs(float64(v.X())) > 1e-5 || math.Abs(float64(v.Y())) > 1e-5 {
		t.Errorf("target in view space = %v, want on Z axis", v)
	}
	if math.Abs(float64(v.Z())+5) > 1e-5 {
		t.Errorf("target view depth = %v, want -5", v.Z())
	}
}

func TestMutationRecomputesViewProjection(t *testing.T) {
	c := New(1)
	before := c.ViewProjectionMatrix()

	c.SetPosition(0, 0, 7)
	afterMove := c.ViewProjectionMatrix()
	if before.ApproxEqual(afterMove) {
		t.Error("view-projection unchanged after SetPosition")
	}

	c.SetAspectRatio(2)
	afterAspect := c.ViewProjectionMatrix()
	if afterMove.ApproxEqual(afterAspect) {
		t.Error("view-projection unchanged after SetAspectRatio")
	}

	// The cached product must equal proj*view.
	want := c.ProjectionMatrix().Mul4(c.ViewMatrix())
	if !afterAspect.ApproxEqualThreshold(want, 1e-6) {
		t.Error("cached view-projection diverged from proj*view")
	}
}

func TestSetDistance(t *testing.T) {
	c := New(1)
	c.SetDistance(6)
	if got := c.Distance(); math.Abs(float64(got)-6) > 1e-5 {
		t.Errorf("distance = %v, want 6", got)
	}
	// Direction must be preserved.
	dir := c.Position().Normalize()
	if !dir.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6) {
		t.Errorf("view direction changed by SetDistance: %v", dir)
	}
}

func TestOrbitHorizontalKeepsDistance(t *testing.T) {
	c := New(1)
	if !c.Orbit(math.Pi/4, 0) {
		t.Fatal("horizontal orbit rejected")
	}
	if got := c.Distance(); math.Abs(float64(got)-3) > 1e-5 {
		t.Errorf("distance after orbit = %v, want 3", got)
	}
}

func TestOrbitVerticalClamp(t *testing.T) {
	c := New(1)

	// Many small steps toward the pole must stop short of it: the last
	// accepted state keeps the polar angle inside the open interval.
	for i := 0; i < 1000; i++ {
		c.Orbit(0, -0.01)
	}
	pos := c.Position()
	r := float64(pos.Len())
	polar := math.Acos(float64(pos.Y()) / r)
	if polar <= 0.1 || polar >= math.Pi-0.1 {
		t.Errorf("polar angle %v escaped the allowed interval", polar)
	}

	// A single step that would cross the boundary is rejected outright.
	before := c.Position()
	if c.Orbit(0, -math.Pi) {
		t.Error("boundary-crossing orbit was accepted")
	}
	if !c.Position().ApproxEqual(before) {
		t.Error("rejected orbit still mutated the camera")
	}
}

func TestOrbitRejectedAtZeroDistance(t *testing.T) {
	c := New(1)
	c.SetPosition(0, 0, 0) // degenerate: position == target
	if c.Orbit(0.1, 0.1) {
		t.Error("orbit accepted with zero offset")
	}
}
