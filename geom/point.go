// Package geom provides the pure-function geometry kernel the rest of the
// engine builds on: point/vector arithmetic, the ball-pivoting circumball
// construction, and the handful of predicates every pivoting query needs.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is an immutable 3-D coordinate triple. It is a plain alias of
// gonum's r3.Vec so the kernel composes directly with r3's own vector
// algebra (Add, Sub, Scale, Dot, ...) instead of re-implementing it.
type Point = r3.Vec

// Cross returns the cross product a x b.
func Cross(a, b Point) Point {
	return r3.Cross(a, b)
}

// smallestNormalizable is the norm below which Normalize refuses to divide,
// per spec: leave the vector unchanged and report failure.
const smallestNormalizable = 1e-300

// Normalize returns the unit vector along v and true, unless ||v|| is
// smaller than 1e-300, in which case it returns v unchanged and false.
func Normalize(v Point) (Point, bool) {
	n := r3.Norm(v)
	if n < smallestNormalizable {
		return v, false
	}
	return r3.Scale(1/n, v), true
}

// Dist2 returns the squared Euclidean distance between p and q.
func Dist2(p, q Point) float64 {
	return r3.Norm2(r3.Sub(p, q))
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return r3.Scale(0.5, r3.Add(p, q))
}

// emptyBallTolerance is subtracted from squared distances in every
// empty-ball / containment test. Tightening it breaks meshes near
// epsilon-cospherical configurations (spec §9), so it must not change.
const emptyBallTolerance = 1e-16

// StrictlyInside reports whether p lies strictly inside the ball of squared
// radius sqR centered at c, using the engine-wide empty-ball tolerance.
func StrictlyInside(p, c Point, sqR float64) bool {
	return Dist2(p, c) < sqR-emptyBallTolerance
}

// normalCompatTolerance is the dot-product tolerance used by every
// normal-compatibility test in the mesh graph.
const normalCompatTolerance = -1e-16

// CompatibleSign reports whether dot is an acceptable normal-compatibility
// dot product, i.e. dot >= -1e-16.
func CompatibleSign(dot float64) bool {
	return dot >= normalCompatTolerance
}

// BallCenter computes the center of a ball of radius r that passes through
// v1, v2 and v3, offset along the outward-facing triangle normal implied by
// n1, n2, n3 (the vertices' own unit normals). It reports false when the
// three points are degenerate/aligned or when the triangle is too large to
// be spanned by a ball of radius r, both ordinary negative results, never
// errors (spec §4.1, §7).
func BallCenter(v1, v2, v3, n1, n2, n3 Point, r float64) (Point, bool) {
	a := Dist2(v3, v2)
	b := Dist2(v1, v3)
	c := Dist2(v2, v1)

	alpha := a * (b + c - a)
	beta := b * (a + c - b)
	gamma := c * (a + b - c)
	tau := alpha + beta + gamma
	if tau < 1e-30 {
		return Point{}, false
	}
	alpha /= tau
	beta /= tau
	gamma /= tau

	center := r3.Add(r3.Add(r3.Scale(alpha, v1), r3.Scale(beta, v2)), r3.Scale(gamma, v3))

	sa, sb, sc := math.Sqrt(a), math.Sqrt(b), math.Sqrt(c)
	denom := (sa + sb + sc) * (sb + sc - sa) * (sc + sa - sb) * (sa + sb - sc)
	if denom <= 0 {
		return Point{}, false
	}
	sqCircumradius := (a * b * c) / denom

	if r*r-sqCircumradius < 0 {
		return Point{}, false
	}
	// The height is taken from the computed circumcenter itself, so the
	// three vertices lie on the returned ball up to rounding and are never
	// reported strictly inside it by the empty-ball test.
	h2 := r*r - Dist2(center, v1)
	if h2 < 0 {
		h2 = 0
	}

	n := TriangleNormal(v1, v2, v3, n1, n2, n3)
	h := math.Sqrt(h2)
	return r3.Add(center, r3.Scale(h, n)), true
}

// TriangleNormal returns the unit normal of triangle (v1,v2,v3), flipped if
// necessary so it points the same way as the vertices' averaged normal
// (n1+n2+n3). Used by BallCenter to pick the outward ball; the opposite-side
// ball is intentionally never returned (spec §4.1).
func TriangleNormal(v1, v2, v3, n1, n2, n3 Point) Point {
	n, ok := Normalize(r3.Cross(r3.Sub(v2, v1), r3.Sub(v3, v1)))
	if !ok {
		return n
	}
	avg, ok := Normalize(r3.Add(r3.Add(n1, n2), n3))
	if ok && r3.Dot(n, avg) < 0 {
		n = r3.Scale(-1, n)
	}
	return n
}
