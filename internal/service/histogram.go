package service

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const DefaultHistogramBins = 5

type Bin struct {
	Min    float64
	Max    float64
	Mean   float64
	Values []float64
}

func (b Bin) Count() int { return len(b.Values) }

// Contains reports whether v lies within the observed range of the bin.
func (b Bin) Contains(v float64) bool {
	return b.Count() > 0 && v >= b.Min && v <= b.Max
}

// Histogram splits the finite values into equal-width bins spanning their
// range. Bin statistics describe the values that fell in each bin.
func Histogram(values []float64, bins int) []Bin {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	var finite []float64
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	out := make([]Bin, bins)
	if len(finite) == 0 {
		return out
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	width := (hi - lo) / float64(bins)
	for _, v := range finite {
		i := 0
		if width > 0 {
			i = int(math.Ceil((v-lo)/width)) - 1
			i = max(0, min(i, bins-1))
		}
		out[i].Values = append(out[i].Values, v)
	}
	for i := range out {
		if out[i].Count() == 0 {
			out[i].Mean = math.NaN()
			continue
		}
		out[i].Min = floats.Min(out[i].Values)
		out[i].Max = floats.Max(out[i].Values)
		out[i].Mean = stat.Mean(out[i].Values, nil)
	}
	return out
}

// Consensus picks the non-empty bin whose mean is closest to self. Earlier
// bins win ties.
func Consensus(values []float64, self float64, bins int) (Bin, bool) {
	best := -1
	bestDist := math.Inf(1)
	hist := Histogram(values, bins)
	for i, b := range hist {
		if b.Count() == 0 {
			continue
		}
		if d := math.Abs(b.Mean - self); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Bin{}, false
	}
	return hist[best], true
}

// Fullest returns the bin holding the most values. Earlier bins win ties.
func Fullest(values []float64, bins int) (Bin, bool) {
	best := -1
	hist := Histogram(values, bins)
	for i, b := range hist {
		if b.Count() > 0 && (best < 0 || b.Count() > hist[best].Count()) {
			best = i
		}
	}
	if best < 0 {
		return Bin{}, false
	}
	return hist[best], true
}
