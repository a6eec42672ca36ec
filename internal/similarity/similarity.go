// Package similarity scores how far apart two contexts are. Lower is closer.
package similarity

import (
	"fmt"
	"math"

	"github.com/Harshitk-cp/ambient/internal/domain"
)

type Comparator interface {
	Compare(a, b *domain.Context) float64
}

type ComparatorFunc func(a, b *domain.Context) float64

func (f ComparatorFunc) Compare(a, b *domain.Context) float64 { return f(a, b) }

const (
	NameMeanAbsolute = "mean_absolute"
	NameDTW          = "dtw"
	NameVarWidth     = "var_width"
)

// ByName resolves a comparator from its configuration name.
func ByName(name string) (Comparator, error) {
	switch name {
	case "", NameMeanAbsolute:
		return MeanAbsolute{}, nil
	case NameDTW:
		return DTW{}, nil
	case NameVarWidth:
		return VarWidth{}, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", name)
	}
}

// MeanAbsolute is the point-wise mean absolute difference over the common
// prefix. Empty contexts compare as 0.
type MeanAbsolute struct{}

func (MeanAbsolute) Compare(a, b *domain.Context) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	return meanAbsolute(a.Values(), b.Values())
}

func meanAbsolute(x, y []float64) float64 {
	n := min(len(x), len(y))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(x[i] - y[i])
	}
	return sum / float64(n)
}

// DTW is the dynamic time warping distance with an absolute-difference cost.
// An empty context is infinitely far from anything.
type DTW struct{}

func (DTW) Compare(a, b *domain.Context) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return math.MaxFloat64
	}
	x, y := a.Values(), b.Values()
	n, m := len(x), len(y)

	prev := make([]float64, m+1)
	cur := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}
	for i := 1; i <= n; i++ {
		cur[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := math.Abs(x[i-1] - y[j-1])
			cur[j] = cost + math.Min(prev[j-1], math.Min(prev[j], cur[j-1]))
		}
		prev, cur = cur, prev
	}
	return prev[m]
}

// VarWidth compares contexts of different widths by sliding the shorter one
// along the longer and keeping the smallest enclosed area, scaled by the width
// difference. Equal widths fall back to the mean absolute difference.
type VarWidth struct{}

func (VarWidth) Compare(a, b *domain.Context) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}
	short, long := a.Values(), b.Values()
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == len(long) {
		return meanAbsolute(short, long)
	}

	gap := float64(len(long) - len(short))
	best := math.MaxFloat64
	for off := 0; off+len(short) <= len(long); off++ {
		area := shoelace(short, long[off:off+len(short)]) * gap
		best = math.Min(best, area)
	}
	return best
}

func shoelace(x, y []float64) float64 {
	area := 0.0
	for j := 0; j < len(y)-1; j++ {
		area += x[j]*y[j+1] - x[j+1]*y[j]
	}
	return math.Abs(area) / 2
}
