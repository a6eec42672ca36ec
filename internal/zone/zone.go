// Package zone implements the adaptive confidence zone an agent keeps around
// its own position.
package zone

import (
	"sync"

	"github.com/Harshitk-cp/ambient/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultSides     = 8
	DefaultRadius    = 250.0
	DefaultMinRadius = 50.0
)

type Option func(*options)

type options struct {
	sides     int
	radius    float64
	minRadius float64
	locked    bool
}

func WithSides(n int) Option {
	return func(o *options) {
		if n >= 3 {
			o.sides = n
		}
	}
}

func WithRadius(r float64) Option {
	return func(o *options) {
		if r > 0 {
			o.radius = r
		}
	}
}

func WithMinRadius(r float64) Option {
	return func(o *options) {
		if r >= 0 {
			o.minRadius = r
		}
	}
}

// Locked freezes the shape: Update becomes a no-op.
func Locked(locked bool) Option {
	return func(o *options) { o.locked = locked }
}

type Zone struct {
	mu      sync.RWMutex
	polygon *geometry.Polygon
	locked  bool
}

// New builds a regular polygon around position. A minimum radius larger than
// the radius is clamped to it.
func New(position r2.Vec, opts ...Option) *Zone {
	o := options{sides: DefaultSides, radius: DefaultRadius, minRadius: DefaultMinRadius}
	for _, opt := range opts {
		opt(&o)
	}
	o.minRadius = min(o.minRadius, o.radius)
	return &Zone{
		polygon: geometry.RegularPolygon(position, o.minRadius, o.sides, o.radius),
		locked:  o.locked,
	}
}

func (z *Zone) Translate(dx, dy float64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.polygon.Translate(dx, dy)
}

// Update grows the zone toward point when include is set and shrinks it
// otherwise.
func (z *Zone) Update(point r2.Vec, weight float64, include bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.locked {
		return
	}
	if !include {
		weight = -weight
	}
	z.polygon.InflateTowardsPoint(point, weight)
}

func (z *Zone) Contains(point r2.Vec) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.polygon.ContainsPoint(point)
}

func (z *Zone) MinDistance(point r2.Vec) float64 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.polygon.MinDistance(point)
}

func (z *Zone) Area() float64 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.polygon.Area()
}

func (z *Zone) Centroid() r2.Vec {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.polygon.Centroid()
}

func (z *Zone) MinRadius() float64 {
	return z.polygon.MinRadius()
}

func (z *Zone) Vertices() []r2.Vec {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.polygon.Vertices()
}

func (z *Zone) SetLocked(locked bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.locked = locked
}
