// Package geometry holds the planar routines behind confidence zones.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const epsilon = 1e-9

// AngleAt returns the angle in degrees between the rays vertex→p and vertex→q.
// A degenerate ray yields 0.
func AngleAt(vertex, p, q r2.Vec) float64 {
	a := r2.Sub(p, vertex)
	b := r2.Sub(q, vertex)
	if r2.Norm(a) < epsilon || r2.Norm(b) < epsilon {
		return 0
	}
	cos := math.Max(-1, math.Min(1, r2.Cos(a, b)))
	return math.Acos(cos) * 180 / math.Pi
}

// DistanceToLine is the perpendicular distance from p to the line through a and b.
func DistanceToLine(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	n := r2.Norm(ab)
	if n < epsilon {
		return r2.Norm(r2.Sub(p, a))
	}
	return math.Abs(r2.Cross(ab, r2.Sub(p, a))) / n
}

// Projection returns t such that a + t·(b-a) is the foot of p on the line ab.
func Projection(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	n2 := r2.Norm2(ab)
	if n2 < epsilon {
		return 0
	}
	return r2.Dot(r2.Sub(p, a), ab) / n2
}

func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// turn is positive for a counter-clockwise turn a→b→c.
func turn(a, b, c r2.Vec) float64 {
	return r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
}
