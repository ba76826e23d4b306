// Package physics is the stateless 2D kernel shared by every room's
// simulation loop. All functions mutate only the Body passed in.
package physics

import "math"

// Body 2D刚体：位置 + 速度
type Body struct {
	X, Y   float64
	VX, VY float64
}

// Integrate advances the body by one tick: pos += vel.
func Integrate(b *Body) {
	b.X += b.VX
	b.Y += b.VY
}

// ApplyFriction applies multiplicative velocity decay.
func ApplyFriction(b *Body, factor float64) {
	b.VX *= factor
	b.VY *= factor
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampToBounds keeps a circular body of the given radius fully inside
// the [0,width]x[0,height] rectangle.
func ClampToBounds(b *Body, radius, width, height float64) {
	b.X = Clamp(b.X, radius, width-radius)
	b.Y = Clamp(b.Y, radius, height-radius)
}

// ResolveWallBounce reflects the velocity component perpendicular to a
// crossed wall, scaled by restitution, and repositions the body exactly
// at the boundary. pos and vel are the coordinate pair for the crossed
// axis.
func ResolveWallBounce(pos, vel *float64, bound, restitution float64) {
	*vel = -*vel * restitution
	*pos = bound
}

// Dist returns the distance between two points.
func Dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// ResolveCircleCollision resolves a moving circular body against a static
// circle centered at (cx, cy). When the two overlap, the moving body's
// velocity is redirected along the contact angle with its previous speed
// plus speedBonus, and the body is pushed out along the contact normal so
// the circles end up tangent. Returns whether a collision occurred.
func ResolveCircleCollision(moving *Body, cx, cy, sumRadii, speedBonus float64) bool {
	dx := moving.X - cx
	dy := moving.Y - cy
	dist := math.Hypot(dx, dy)
	if dist >= sumRadii {
		return false
	}

	angle := math.Atan2(dy, dx)
	speed := math.Hypot(moving.VX, moving.VY)

	moving.VX = math.Cos(angle) * (speed + speedBonus)
	moving.VY = math.Sin(angle) * (speed + speedBonus)

	overlap := sumRadii - dist
	moving.X += math.Cos(angle) * overlap
	moving.Y += math.Sin(angle) * overlap
	return true
}

// Impulse adds to the body's velocity a vector of the given magnitude
// pointing from (fromX, fromY) towards the body's position. A zero
// distance leaves the body untouched.
func Impulse(b *Body, fromX, fromY, magnitude float64) {
	dx := b.X - fromX
	dy := b.Y - fromY
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	b.VX += dx / dist * magnitude
	b.VY += dy / dist * magnitude
}

// Speed returns the magnitude of the body's velocity.
func Speed(b *Body) float64 {
	return math.Hypot(b.VX, b.VY)
}
