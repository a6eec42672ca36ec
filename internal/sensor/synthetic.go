package sensor

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"
)

// Field is a smooth periodic signal over the plane with a linear spatial
// gradient and Gaussian noise.
type Field struct {
	Base      float64
	Gradient  r2.Vec
	Amplitude float64
	Period    float64
	Noise     float64
}

func DefaultField() Field {
	return Field{Base: 20, Gradient: r2.Vec{X: 0.002, Y: 0.001}, Amplitude: 5, Period: 96, Noise: 0.1}
}

// Series samples the field at pos for n steps. The same seed yields the same
// series.
func (f Field) Series(pos r2.Vec, n int, seed uint64) []float64 {
	period := f.Period
	if period <= 0 {
		period = 1
	}
	noise := distuv.Normal{Mu: 0, Sigma: math.Max(f.Noise, 1e-12), Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	phase := (pos.X + pos.Y) / 1000
	out := make([]float64, n)
	for t := range out {
		v := f.Base + r2.Dot(f.Gradient, pos) + f.Amplitude*math.Sin(2*math.Pi*float64(t)/period+phase)
		if f.Noise > 0 {
			v += noise.Rand()
		}
		out[t] = v
	}
	return out
}

// GapMask hides each sample from skip onwards with probability rate.
func GapMask(n, skip int, rate float64, seed uint64) []bool {
	mask := make([]bool, n)
	if rate <= 0 {
		return mask
	}
	b := distuv.Bernoulli{P: math.Min(rate, 1), Src: rand.NewPCG(seed, ^seed)}
	for i := skip; i < n; i++ {
		mask[i] = b.Rand() == 1
	}
	return mask
}
