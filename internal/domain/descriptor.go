package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

type Range struct {
	Min float64
	Max float64
}

func (r Range) point() r2.Vec {
	return r2.Vec{X: r.Min, Y: r.Max}
}

// Descriptor is the key under which a context store buckets contexts.
type Descriptor map[InfoType]Range

// IncludedIn reports whether every range of d lies inside the matching range
// of other.
func (d Descriptor) IncludedIn(other Descriptor) bool {
	if len(d) != len(other) {
		return false
	}
	for info, r := range d {
		o, ok := other[info]
		if !ok {
			return false
		}
		if o.Min > r.Min || o.Max < r.Max {
			return false
		}
	}
	return true
}

// Distance is the mean Euclidean distance between the (min, max) points of
// each info type. It is NaN when the info sets differ.
func (d Descriptor) Distance(other Descriptor) float64 {
	if len(d) != len(other) || len(d) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for info, r := range d {
		o, ok := other[info]
		if !ok {
			return math.NaN()
		}
		sum += r2.Norm(r2.Sub(r.point(), o.point()))
	}
	return sum / float64(len(d))
}

func (d Descriptor) Clone() Descriptor {
	out := make(Descriptor, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
