package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestConvexHull(t *testing.T) {
	points := []r2.Vec{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4},
		{X: 2, Y: 2}, {X: 1, Y: 3}, {X: 4, Y: 4},
	}

	hull, err := ConvexHull(points)
	require.NoError(t, err)
	assert.Equal(t, []r2.Vec{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}, hull)
}

func TestConvexHullDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []r2.Vec
		want   error
	}{
		{"empty", nil, ErrTooFewPoints},
		{"duplicates", []r2.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 2}}, ErrTooFewPoints},
		{"collinear", []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 5, Y: 5}}, ErrCollinear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvexHull(tt.points)
			if !errors.Is(err, tt.want) {
				t.Errorf("ConvexHull() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPolygonContains(t *testing.T) {
	p := RegularPolygon(r2.Vec{X: 10, Y: 10}, 1, 8, 5)

	assert.True(t, p.Contains(10, 10))
	assert.True(t, p.Contains(12, 11))
	assert.False(t, p.Contains(20, 10))
	assert.False(t, p.Contains(10, -1))
}

func TestPolygonArea(t *testing.T) {
	square := NewPolygon(r2.Vec{X: 1, Y: 1}, 0, []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}})
	assert.InDelta(t, 4, square.Area(), 1e-9)

	clockwise := NewPolygon(r2.Vec{X: 1, Y: 1}, 0, []r2.Vec{{X: 0, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 0}})
	assert.InDelta(t, 4, clockwise.Area(), 1e-9)
}

func TestPolygonInflateTowardsPoint(t *testing.T) {
	p := RegularPolygon(r2.Vec{}, 50, 8, 100)
	before := p.Area()
	target := r2.Vec{X: 500, Y: 0}

	p.InflateTowardsPoint(target, 1)
	assert.Greater(t, p.Area(), before)

	// the vertex pointing straight at the target moved one unit
	v := p.Vertices()[7]
	assert.InDelta(t, 101, v.X, 1e-9)

	// vertices facing away did not move
	assert.InDelta(t, -100, p.Vertices()[3].X, 1e-9)
}

func TestPolygonDeflateRespectsMinRadius(t *testing.T) {
	p := RegularPolygon(r2.Vec{X: 3, Y: -7}, 50, 8, 60)
	target := r2.Vec{X: 300, Y: 200}

	for i := 0; i < 500; i++ {
		p.InflateTowardsPoint(target, -1)
		for _, v := range p.Vertices() {
			require.GreaterOrEqual(t, Distance(v, p.Centroid()), p.MinRadius())
		}
	}
}

func TestPolygonInflateNoop(t *testing.T) {
	p := RegularPolygon(r2.Vec{}, 10, 6, 20)
	want := p.Vertices()

	p.InflateTowardsPoint(r2.Vec{}, 5)
	p.InflateTowardsPoint(r2.Vec{X: 100}, 0)
	assert.Equal(t, want, p.Vertices())
}

func TestPolygonTranslate(t *testing.T) {
	p := RegularPolygon(r2.Vec{}, 1, 4, 2)
	p.Translate(3, 4)

	assert.Equal(t, r2.Vec{X: 3, Y: 4}, p.Centroid())
	assert.True(t, p.Contains(3, 4))
	assert.False(t, p.Contains(0, 0))
}

func TestPolygonMinDistance(t *testing.T) {
	p := NewPolygon(r2.Vec{}, 0, []r2.Vec{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}})
	assert.InDelta(t, 2, p.MinDistance(r2.Vec{X: 3, Y: 0}), 1e-9)
}

func TestUnion(t *testing.T) {
	a := NewPolygon(r2.Vec{X: 1, Y: 1}, 1, []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}})
	b := NewPolygon(r2.Vec{X: 3, Y: 1}, 2, []r2.Vec{{X: 2, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 2, Y: 2}})

	u, err := Union(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 8, u.Area(), 1e-9)
	assert.Equal(t, r2.Vec{X: 2, Y: 1}, u.Centroid())
	assert.Equal(t, 1.0, u.MinRadius())
}

func TestHelpers(t *testing.T) {
	assert.InDelta(t, 90, AngleAt(r2.Vec{}, r2.Vec{X: 1}, r2.Vec{Y: 1}), 1e-9)
	assert.InDelta(t, 2, DistanceToLine(r2.Vec{X: 1, Y: 2}, r2.Vec{}, r2.Vec{X: 5}), 1e-9)
	assert.InDelta(t, 0.25, Projection(r2.Vec{X: 1, Y: 3}, r2.Vec{}, r2.Vec{X: 4}), 1e-9)
	assert.False(t, math.IsNaN(AngleAt(r2.Vec{}, r2.Vec{}, r2.Vec{X: 1})))
}
