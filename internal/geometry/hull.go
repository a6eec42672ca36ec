package geometry

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	ErrTooFewPoints = errors.New("convex hull needs at least 3 unique points")
	ErrCollinear    = errors.New("convex hull points are collinear")
)

// ConvexHull computes the hull with a Graham scan. The ring is returned in
// counter-clockwise order, starting at the lowest point, without repeating it.
func ConvexHull(points []r2.Vec) ([]r2.Vec, error) {
	unique := dedupe(points)
	if len(unique) < 3 {
		return nil, ErrTooFewPoints
	}
	if allCollinear(unique) {
		return nil, ErrCollinear
	}

	lowest := 0
	for i, p := range unique {
		l := unique[lowest]
		if p.Y < l.Y || (p.Y == l.Y && p.X < l.X) {
			lowest = i
		}
	}
	unique[0], unique[lowest] = unique[lowest], unique[0]
	pivot := unique[0]

	rest := unique[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		ai := polarAngle(pivot, rest[i])
		aj := polarAngle(pivot, rest[j])
		if math.Abs(ai-aj) > epsilon {
			return ai < aj
		}
		return Distance(pivot, rest[i]) < Distance(pivot, rest[j])
	})

	hull := []r2.Vec{pivot}
	for _, p := range rest {
		for len(hull) > 1 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull, nil
}

func polarAngle(pivot, p r2.Vec) float64 {
	return math.Atan2(p.Y-pivot.Y, p.X-pivot.X)
}

func dedupe(points []r2.Vec) []r2.Vec {
	seen := make(map[r2.Vec]struct{}, len(points))
	out := make([]r2.Vec, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func allCollinear(points []r2.Vec) bool {
	a, b := points[0], points[1]
	for _, c := range points[2:] {
		if math.Abs(turn(a, b, c)) > epsilon {
			return false
		}
	}
	return true
}
