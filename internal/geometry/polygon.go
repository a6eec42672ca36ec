package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// InflateCutoff is the widest vertex–centroid–target angle, in degrees, at
// which a vertex still moves during inflation.
const InflateCutoff = 60.0

// Polygon is a closed ring of vertices around a fixed centroid. Vertices
// never move closer than MinRadius to the centroid.
type Polygon struct {
	points    []r2.Vec
	centroid  r2.Vec
	minRadius float64
}

func NewPolygon(centroid r2.Vec, minRadius float64, points []r2.Vec) *Polygon {
	p := &Polygon{centroid: centroid, minRadius: minRadius}
	p.points = append(p.points, points...)
	return p
}

// RegularPolygon places the vertices at radius from center, at angles
// k·2π/sides for k = 1..sides.
func RegularPolygon(center r2.Vec, minRadius float64, sides int, radius float64) *Polygon {
	p := &Polygon{centroid: center, minRadius: minRadius}
	step := 2 * math.Pi / float64(sides)
	for k := 1; k <= sides; k++ {
		a := float64(k) * step
		p.points = append(p.points, r2.Add(center, r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}))
	}
	return p
}

func (p *Polygon) Vertices() []r2.Vec {
	out := make([]r2.Vec, len(p.points))
	copy(out, p.points)
	return out
}

func (p *Polygon) Centroid() r2.Vec   { return p.centroid }
func (p *Polygon) MinRadius() float64 { return p.minRadius }

// Contains uses the even-odd edge-crossing rule.
func (p *Polygon) Contains(x, y float64) bool {
	n := len(p.points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.points[i], p.points[j]
		if (a.Y > y) != (b.Y > y) {
			cross := (b.X-a.X)*(y-a.Y)/(b.Y-a.Y) + a.X
			if x < cross {
				inside = !inside
			}
		}
	}
	return inside
}

func (p *Polygon) ContainsPoint(v r2.Vec) bool {
	return p.Contains(v.X, v.Y)
}

// InflateTowardsPoint moves every vertex facing target one unit along the
// centroid→target direction, outwards for a positive weight and inwards for
// a negative one. Moves that would break the minimum radius are dropped.
func (p *Polygon) InflateTowardsPoint(target r2.Vec, weight float64) {
	if weight == 0 || math.IsNaN(weight) {
		return
	}
	dir := r2.Sub(target, p.centroid)
	if r2.Norm(dir) < epsilon {
		return
	}
	step := r2.Scale(math.Copysign(1, weight), r2.Unit(dir))

	for i, v := range p.points {
		if AngleAt(p.centroid, v, target) >= InflateCutoff {
			continue
		}
		moved := r2.Add(v, step)
		if Distance(moved, p.centroid) >= p.minRadius {
			p.points[i] = moved
		}
	}
}

// Area is the absolute shoelace area of the ring.
func (p *Polygon) Area() float64 {
	n := len(p.points)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		a, b := p.points[i], p.points[(i+1)%n]
		sum += a.X*b.Y - a.Y*b.X
	}
	return math.Abs(sum) / 2
}

func (p *Polygon) Translate(dx, dy float64) {
	d := r2.Vec{X: dx, Y: dy}
	p.centroid = r2.Add(p.centroid, d)
	for i := range p.points {
		p.points[i] = r2.Add(p.points[i], d)
	}
}

// MinDistance is the distance from v to the nearest vertex.
func (p *Polygon) MinDistance(v r2.Vec) float64 {
	best := math.Inf(1)
	for _, q := range p.points {
		best = math.Min(best, Distance(v, q))
	}
	return best
}

// Union returns the convex hull of both vertex sets, centred between the
// two centroids, keeping the smaller minimum radius.
func Union(a, b *Polygon) (*Polygon, error) {
	all := append(a.Vertices(), b.points...)
	hull, err := ConvexHull(all)
	if err != nil {
		return nil, err
	}
	c := r2.Scale(0.5, r2.Add(a.centroid, b.centroid))
	return NewPolygon(c, math.Min(a.minRadius, b.minRadius), hull), nil
}
