package physics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestIntegrate(t *testing.T) {
	b := Body{X: 10, Y: 20, VX: 3, VY: -4}
	Integrate(&b)

	if b.X != 13 || b.Y != 16 {
		t.Errorf("Expected position (13, 16), got (%v, %v)", b.X, b.Y)
	}
	if b.VX != 3 || b.VY != -4 {
		t.Error("Integrate must not change the velocity")
	}
}

func TestApplyFriction(t *testing.T) {
	b := Body{VX: 10, VY: -10}

	before := Speed(&b)
	ApplyFriction(&b, 0.98)
	after := Speed(&b)

	if !almostEqual(after, before*0.98) {
		t.Errorf("Expected speed %v after friction, got %v", before*0.98, after)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestClampToBounds(t *testing.T) {
	b := Body{X: -5, Y: 700}
	ClampToBounds(&b, 20, 1200, 600)

	if b.X != 20 {
		t.Errorf("Expected X clamped to radius 20, got %v", b.X)
	}
	if b.Y != 580 {
		t.Errorf("Expected Y clamped to 580, got %v", b.Y)
	}
}

func TestResolveWallBounce(t *testing.T) {
	pos, vel := -3.0, -10.0
	ResolveWallBounce(&pos, &vel, 12, 0.8)

	if pos != 12 {
		t.Errorf("Expected body repositioned at the boundary 12, got %v", pos)
	}
	if !almostEqual(vel, 8) {
		t.Errorf("Expected velocity reflected to 8, got %v", vel)
	}
}

func TestResolveCircleCollision_Miss(t *testing.T) {
	b := Body{X: 100, Y: 100, VX: 1}
	if ResolveCircleCollision(&b, 200, 100, 32, 2) {
		t.Fatal("Bodies further apart than sumRadii must not collide")
	}
	if b.X != 100 || b.VX != 1 {
		t.Error("A miss must leave the body untouched")
	}
}

func TestResolveCircleCollision_Hit(t *testing.T) {
	// Ball 10 to the right of the static circle, overlapping by 22.
	b := Body{X: 110, Y: 100, VX: 5, VY: 0}

	if !ResolveCircleCollision(&b, 100, 100, 32, 2) {
		t.Fatal("Overlapping bodies must collide")
	}

	// Pushed out along the contact normal so the circles are tangent.
	if !almostEqual(b.X, 132) || !almostEqual(b.Y, 100) {
		t.Errorf("Expected body at (132, 100), got (%v, %v)", b.X, b.Y)
	}

	// Speed is previous speed plus the bonus, redirected along the normal.
	if !almostEqual(Speed(&b), 7) {
		t.Errorf("Expected speed 7 after collision, got %v", Speed(&b))
	}
	if b.VX <= 0 || !almostEqual(b.VY, 0) {
		t.Errorf("Expected velocity along +X, got (%v, %v)", b.VX, b.VY)
	}
}

func TestImpulse(t *testing.T) {
	b := Body{X: 10, Y: 0, VX: 1}
	Impulse(&b, 0, 0, 15)

	if !almostEqual(b.VX, 16) || !almostEqual(b.VY, 0) {
		t.Errorf("Expected velocity (16, 0), got (%v, %v)", b.VX, b.VY)
	}
}

func TestImpulse_ZeroDistance(t *testing.T) {
	b := Body{X: 5, Y: 5, VX: 2, VY: 3}
	Impulse(&b, 5, 5, 15)

	if b.VX != 2 || b.VY != 3 {
		t.Error("An impulse from the body's own position must be a no-op")
	}
}
