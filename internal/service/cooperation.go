package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/geometry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	StrategyAll       = "all"
	StrategyConfident = "confident"
	StrategyNearest   = "nearest"

	DefaultNeighborPercentage = 25.0
)

// Cooperation asks a neighbor how similar its own history was at the times
// the asking agent found similar to now.
type Cooperation interface {
	SimilarityScores(ctx context.Context, self *Agent, n Neighbor, ref *domain.Context, idxs []int) ([]SimilarityScore, error)
}

type ContextCooperation struct{}

func (ContextCooperation) SimilarityScores(_ context.Context, _ *Agent, n Neighbor, ref *domain.Context, idxs []int) ([]SimilarityScore, error) {
	if len(idxs) == 0 {
		return nil, ErrNoContexts
	}
	return n.SimilarityScores(ref, idxs)
}

// NeighborStrategy narrows the eligible neighbors an agent cooperates with.
type NeighborStrategy interface {
	Select(self *Agent, candidates []Neighbor) []Neighbor
}

type AllNeighbors struct{}

func (AllNeighbors) Select(_ *Agent, candidates []Neighbor) []Neighbor {
	return candidates
}

// MostConfidentNeighbors keeps the Percentage most trusted neighbors.
type MostConfidentNeighbors struct {
	Percentage float64
}

func (s MostConfidentNeighbors) Select(self *Agent, candidates []Neighbor) []Neighbor {
	ids := make([]uuid.UUID, len(candidates))
	byID := make(map[uuid.UUID]Neighbor, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ID()
		byID[n.ID()] = n
	}
	top := self.trust.Ledger().MostTrusted(ids, portion(len(candidates), s.Percentage))
	out := make([]Neighbor, len(top))
	for i, id := range top {
		out[i] = byID[id]
	}
	return out
}

// NearestNeighbors keeps the Percentage closest neighbors. Neighbors without
// a position sort last.
type NearestNeighbors struct {
	Percentage float64
}

func (s NearestNeighbors) Select(self *Agent, candidates []Neighbor) []Neighbor {
	out := sortByDistance(self, candidates)
	return out[:portion(len(out), s.Percentage)]
}

func NeighborStrategyByName(name string, percentage float64) (NeighborStrategy, error) {
	switch name {
	case "", StrategyAll:
		return AllNeighbors{}, nil
	case StrategyConfident:
		return MostConfidentNeighbors{Percentage: percentage}, nil
	case StrategyNearest:
		return NearestNeighbors{Percentage: percentage}, nil
	default:
		return nil, fmt.Errorf("unknown neighbor strategy %q", name)
	}
}

func portion(n int, pct float64) int {
	if n == 0 {
		return 0
	}
	if pct <= 0 || pct > 100 {
		pct = DefaultNeighborPercentage
	}
	k := int(math.Ceil(float64(n) * pct / 100))
	return max(1, min(k, n))
}

func sortByDistance(self *Agent, ns []Neighbor) []Neighbor {
	out := append([]Neighbor(nil), ns...)
	pos, ok := self.Position()
	if !ok {
		return out
	}
	dist := make(map[uuid.UUID]float64, len(out))
	for _, n := range out {
		d := math.Inf(1)
		if p, ok := n.Position(); ok {
			d = geometry.Distance(pos, p)
		}
		dist[n.ID()] = d
	}
	sort.SliceStable(out, func(i, j int) bool { return dist[out[i].ID()] < dist[out[j].ID()] })
	return out
}

// estimateMissingData fills the gap at idx. A NaN result without error means
// no strategy could produce a value this time.
func (a *Agent) estimateMissingData(ctx context.Context, idx int, last *domain.Context, missing domain.ContextEntry) (float64, error) {
	if a.zone != nil && a.zoneBehavior != nil {
		if v := a.zoneBehavior.Estimate(a); domain.IsFinite(v) {
			a.setMode(ModeZone)
			a.listener.Imputed(a, last, missing.WithValue(v, true), nil, a.trueValue())
			return v, nil
		}
	}

	if last == nil || !last.IsValid() {
		return a.imputeFromNeighbors(idx, missing), nil
	}

	if a.estimator == nil {
		return math.NaN(), ErrNoEstimationStrategy
	}
	a.setMode(ModeContexts)
	v, err := a.estimateByContextualCooperation(ctx, idx, last, missing)
	if err != nil || domain.IsFinite(v) {
		return v, err
	}
	return a.imputeFromNeighbors(idx, missing), nil
}

func (a *Agent) imputeFromNeighbors(idx int, missing domain.ContextEntry) float64 {
	v := a.estimateWithNeighbors()
	a.setMode(ModeNeighbors)
	a.logger.Debug("estimated from neighbors", zap.Int("sample", idx), zap.Float64("value", v))
	if domain.IsFinite(v) {
		a.listener.Imputed(a, nil, missing.WithValue(v, true), nil, a.trueValue())
	}
	return v
}

// estimateWithNeighbors averages the midpoint of the last two samples of the
// nearest neighbors that already have a context.
func (a *Agent) estimateWithNeighbors() float64 {
	var mids []float64
	for _, n := range sortByDistance(a, a.registry.Eligible(a.id)) {
		if len(mids) == a.opts.NeighborLimit {
			break
		}
		c, ok := n.LastContext()
		if !ok || c.Size() < 2 {
			continue
		}
		vs := c.Values()
		m := (vs[len(vs)-1] + vs[len(vs)-2]) / 2
		if domain.IsFinite(m) {
			mids = append(mids, m)
		}
	}
	if len(mids) == 0 {
		return math.NaN()
	}
	return stat.Mean(mids, nil)
}

func (a *Agent) estimateByContextualCooperation(ctx context.Context, idx int, last *domain.Context, missing domain.ContextEntry) (float64, error) {
	similar := a.contexts.MostSimilar(a.opts.SimilarContexts, last, a.opts.Promote)
	idxs := make([]int, len(similar))
	for i, c := range similar {
		idxs[i] = c.FinalIndex()
	}
	used := map[uuid.UUID][]*domain.Context{a.id: similar}

	lastValue := a.lastPerceivedValue(last)
	selfDelta := a.estimator.Impute(ImputeRequest{Self: a.id, Contexts: used, Reference: last, Missing: missing})
	selfEst := lastValue + selfDelta
	result := selfEst

	if a.opts.UseCooperation {
		if a.cooperation == nil {
			return math.NaN(), ErrNoCooperativeBehavior
		}
		estimates := a.estimateByCooperation(ctx, last, missing, idxs, lastValue)
		if bin, ok := a.consensus(selfEst, estimates); ok {
			result = bin.Mean
			a.trust.Adapt(estimates, bin)
		}
	}

	a.logger.Debug("estimated from contexts",
		zap.Int("sample", idx),
		zap.Float64("self_estimate", selfEst),
		zap.Float64("estimate", result),
		zap.Int("similar_contexts", len(similar)),
	)
	if domain.IsFinite(result) {
		a.listener.Imputed(a, last, missing.WithValue(result, true), used, a.trueValue())
	}
	return result, nil
}

// consensus picks the bin closest to the agent's own estimate. Without one
// the fullest bin of the neighbor estimates decides.
func (a *Agent) consensus(self float64, estimates map[uuid.UUID]float64) (Bin, bool) {
	if len(estimates) == 0 {
		return Bin{}, false
	}
	all := make([]float64, 0, len(estimates)+1)
	if domain.IsFinite(self) {
		all = append(all, self)
	}
	for _, id := range sortedIDs(estimates) {
		all = append(all, estimates[id])
	}
	if domain.IsFinite(self) {
		return Consensus(all, self, a.opts.HistogramBins)
	}
	return Fullest(all, a.opts.HistogramBins)
}

// estimateByCooperation returns every neighbor's take on the missing value.
// Neighbors that cannot answer are skipped. An answer that is not finite is
// kept so the neighbor can be penalized for it.
func (a *Agent) estimateByCooperation(ctx context.Context, last *domain.Context, missing domain.ContextEntry, idxs []int, lastValue float64) map[uuid.UUID]float64 {
	want := make(map[int]struct{}, len(idxs))
	for _, i := range idxs {
		want[i] = struct{}{}
	}
	mine := a.contexts.Select(func(c *domain.Context) bool {
		_, ok := want[c.FinalIndex()]
		return ok
	})
	own := map[uuid.UUID][]*domain.Context{a.id: mine}

	out := make(map[uuid.UUID]float64)
	neighbors := a.neighborStrategy().Select(a, a.registry.Eligible(a.id))
	for _, n := range neighbors {
		scores, err := a.cooperation.SimilarityScores(ctx, a, n, last, idxs)
		if err != nil || len(scores) == 0 {
			a.logger.Debug("neighbor skipped", zap.String("neighbor", n.Name()), zap.Error(err))
			continue
		}
		delta := a.estimator.Impute(ImputeRequest{
			Self:      a.id,
			Contexts:  own,
			Reference: last,
			Missing:   missing,
			Weights:   similarityWeights(scores),
		})
		out[n.ID()] = lastValue + delta
	}
	return out
}

// similarityWeights turns distances into weights, the farthest context
// weighing nothing.
func similarityWeights(scores []SimilarityScore) map[int]float64 {
	ds := make([]float64, 0, len(scores))
	for _, s := range scores {
		if domain.IsFinite(s.Distance) {
			ds = append(ds, s.Distance)
		}
	}
	out := make(map[int]float64, len(ds))
	if len(ds) == 0 {
		return out
	}
	top := floats.Max(ds)
	for _, s := range scores {
		if domain.IsFinite(s.Distance) {
			out[s.FinalIndex] = top - s.Distance
		}
	}
	return out
}

func sortedIDs(m map[uuid.UUID]float64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}
