package service

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/similarity"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

const (
	EstimatorWeightedDelta = "weighted_delta"
	EstimatorVariation     = "variation"
)

type ImputeRequest struct {
	Self      uuid.UUID
	Contexts  map[uuid.UUID][]*domain.Context
	Reference *domain.Context
	Missing   domain.ContextEntry
	// Weights maps a context final index to its similarity weight. When set,
	// only contexts with a weight take part.
	Weights map[int]float64
}

// Estimator predicts the next delta of the reference context.
type Estimator interface {
	Impute(req ImputeRequest) float64
}

// WeightedDeltaEstimator averages the last deltas of similar contexts,
// weighting each by how much closer it is to the reference than the
// farthest candidate.
type WeightedDeltaEstimator struct {
	Comparator similarity.Comparator
}

func NewWeightedDeltaEstimator(cmp similarity.Comparator) *WeightedDeltaEstimator {
	if cmp == nil {
		cmp = similarity.MeanAbsolute{}
	}
	return &WeightedDeltaEstimator{Comparator: cmp}
}

func (e *WeightedDeltaEstimator) Impute(req ImputeRequest) float64 {
	ref := req.Reference
	if ref == nil {
		return math.NaN()
	}
	candidates := candidatesFor(req)

	weights := make([]float64, len(candidates))
	if req.Weights != nil {
		for i, c := range candidates {
			w, ok := req.Weights[c.FinalIndex()]
			if !ok {
				w = math.NaN()
			}
			weights[i] = w
		}
	} else {
		maxScore := math.Inf(-1)
		for i, c := range candidates {
			weights[i] = e.Comparator.Compare(ref, c)
			maxScore = math.Max(maxScore, weights[i])
		}
		for i := range weights {
			weights[i] = maxScore - weights[i]
		}
	}

	result := weightedMean(candidates, weights)
	if !domain.IsFinite(result) {
		return ref.LastDelta()
	}
	return result
}

// VariationEstimator averages, per agent, the last deltas of the observed
// candidates and then averages across agents.
type VariationEstimator struct{}

func (VariationEstimator) Impute(req ImputeRequest) float64 {
	ref := req.Reference
	if ref == nil {
		return math.NaN()
	}
	var perAgent []float64
	for _, owner := range sortedOwners(req.Contexts) {
		var deltas []float64
		for _, c := range req.Contexts[owner] {
			if c.Size() != ref.Size() || c.Equal(ref) || c.EstimatedCount() > 0 {
				continue
			}
			if req.Weights != nil {
				if _, ok := req.Weights[c.FinalIndex()]; !ok {
					continue
				}
			}
			if d := c.LastDelta(); domain.IsFinite(d) {
				deltas = append(deltas, d)
			}
		}
		if len(deltas) > 0 {
			perAgent = append(perAgent, stat.Mean(deltas, nil))
		}
	}
	if len(perAgent) == 0 {
		return ref.LastDelta()
	}
	result := stat.Mean(perAgent, nil)
	if !domain.IsFinite(result) {
		return ref.LastDelta()
	}
	return result
}

// EstimatorByName resolves an estimator from its configuration name.
func EstimatorByName(name string, cmp similarity.Comparator) (Estimator, error) {
	switch name {
	case "", EstimatorWeightedDelta:
		return NewWeightedDeltaEstimator(cmp), nil
	case EstimatorVariation:
		return VariationEstimator{}, nil
	default:
		return nil, fmt.Errorf("unknown estimator %q", name)
	}
}

func candidatesFor(req ImputeRequest) []*domain.Context {
	ref := req.Reference
	var out []*domain.Context
	for _, owner := range sortedOwners(req.Contexts) {
		for _, c := range req.Contexts[owner] {
			if c.Size() != ref.Size() || c.Equal(ref) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// weightedMean skips candidates whose delta or weight is not finite.
func weightedMean(cs []*domain.Context, weights []float64) float64 {
	var ds, ws []float64
	sumW := 0.0
	for i, c := range cs {
		d, w := c.LastDelta(), weights[i]
		if !domain.IsFinite(d) || !domain.IsFinite(w) {
			continue
		}
		ds = append(ds, d)
		ws = append(ws, w)
		sumW += w
	}
	if len(ds) == 0 || sumW == 0 {
		return math.NaN()
	}
	return stat.Mean(ds, ws)
}

func sortedOwners(m map[uuid.UUID][]*domain.Context) []uuid.UUID {
	owners := make([]uuid.UUID, 0, len(m))
	for id := range m {
		owners = append(owners, id)
	}
	sort.Slice(owners, func(i, j int) bool { return bytes.Compare(owners[i][:], owners[j][:]) < 0 })
	return owners
}
