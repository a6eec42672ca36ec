package service

import (
	"math"
	"sort"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/geometry"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultZoneUpdateDelta   = 220.0
	DefaultZoneOutlierFactor = 0.1
	MinZonePairs             = 3
)

type zoneNeighbor struct {
	n     Neighbor
	pos   r2.Vec
	value float64
	dist  float64
}

type zonePair struct {
	from, to zoneNeighbor
	field    float64
	weight   float64
	outlier  bool
}

// ZoneBehavior interpolates the missing value from pairs of neighbors inside
// the agent's confidence zone and reshapes the zone around the pairs that
// agreed.
type ZoneBehavior struct {
	UpdateDelta   float64
	OutlierFactor float64
	logger        *zap.Logger
}

func NewZoneBehavior(logger *zap.Logger) *ZoneBehavior {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoneBehavior{
		UpdateDelta:   DefaultZoneUpdateDelta,
		OutlierFactor: DefaultZoneOutlierFactor,
		logger:        logger,
	}
}

// Estimate returns NaN when fewer than MinZonePairs pairs can be formed.
func (b *ZoneBehavior) Estimate(self *Agent) float64 {
	z := self.Zone()
	pos, ok := self.Position()
	if z == nil || !ok {
		return math.NaN()
	}

	var candidates []zoneNeighbor
	for _, n := range self.Registry().Agents() {
		if n.ID() == self.ID() || !n.IsRealSensor() || !n.IsActive() || n.IsPaused() {
			continue
		}
		p, ok := n.Position()
		if !ok {
			continue
		}
		d := geometry.Distance(pos, p)
		if d == 0 || !z.Contains(p) {
			continue
		}
		last, ok := n.LastPerception()
		if !ok || !domain.IsFinite(last.Value) {
			continue
		}
		candidates = append(candidates, zoneNeighbor{n: n, pos: p, value: last.Value, dist: d})
	}

	pairs := pairNeighbors(pos, candidates)
	if len(pairs) < MinZonePairs {
		return math.NaN()
	}
	b.markOutliers(pairs)

	var fields, weights []float64
	for _, p := range pairs {
		if p.outlier {
			b.logger.Debug("zone outlier pair",
				zap.String("from", p.from.n.Name()),
				zap.String("to", p.to.n.Name()),
				zap.Float64("field", p.field),
			)
			z.Update(p.from.pos, b.UpdateDelta, false)
			z.Update(p.to.pos, b.UpdateDelta, false)
			continue
		}
		z.Update(p.from.pos, b.UpdateDelta/2, true)
		z.Update(p.to.pos, b.UpdateDelta/2, true)
		fields = append(fields, p.field)
		weights = append(weights, p.weight)
	}
	if len(fields) == 0 {
		return math.NaN()
	}

	sumW := 0.0
	for _, w := range weights {
		sumW += w
	}
	if sumW == 0 {
		weights = nil
	}
	v := stat.Mean(fields, weights)
	b.logger.Debug("zone estimate",
		zap.String("agent", self.Name()),
		zap.Int("pairs", len(pairs)),
		zap.Int("inliers", len(fields)),
		zap.Float64("value", v),
		zap.Float64("zone_area", z.Area()),
	)
	return v
}

// pairNeighbors pairs the nearest remaining neighbor with the one whose
// connecting line passes closest to self.
func pairNeighbors(self r2.Vec, ns []zoneNeighbor) []zonePair {
	rest := append([]zoneNeighbor(nil), ns...)
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].dist < rest[j].dist })

	var pairs []zonePair
	for len(rest) >= 2 {
		from := rest[0]
		rest = rest[1:]

		best := 0
		bestDist := math.Inf(1)
		for i, c := range rest {
			if d := geometry.DistanceToLine(self, from.pos, c.pos); d < bestDist {
				best, bestDist = i, d
			}
		}
		to := rest[best]
		rest = append(rest[:best], rest[best+1:]...)

		t := geometry.Projection(self, from.pos, to.pos)
		pairs = append(pairs, zonePair{
			from:   from,
			to:     to,
			field:  from.value + (to.value-from.value)*t,
			weight: bestDist,
		})
	}
	return pairs
}

// markOutliers flags the pairs whose field lies too far from the one closest
// to the median. The spread is the gap between that reference and the third
// closest field.
func (b *ZoneBehavior) markOutliers(pairs []zonePair) {
	fields := make([]float64, len(pairs))
	for i, p := range pairs {
		fields[i] = p.field
	}
	sort.Float64s(fields)
	median := stat.Quantile(0.5, stat.Empirical, fields, nil)

	byCloseness := make([]float64, len(fields))
	copy(byCloseness, fields)
	sort.SliceStable(byCloseness, func(i, j int) bool {
		return math.Abs(median-byCloseness[i]) < math.Abs(median-byCloseness[j])
	})
	ref := byCloseness[0]
	spread := math.Abs(ref - byCloseness[2])
	lo := ref - b.OutlierFactor*spread
	hi := ref + b.OutlierFactor*spread

	for i := range pairs {
		v := pairs[i].field
		pairs[i].outlier = v < lo || v > hi
	}
}
