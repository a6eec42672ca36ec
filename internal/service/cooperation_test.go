package service

import (
	"context"
	"math"
	"testing"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/sensor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortion(t *testing.T) {
	tests := []struct {
		n    int
		pct  float64
		want int
	}{
		{0, 25, 0},
		{8, 25, 2},
		{9, 25, 3},
		{3, 10, 1},
		{4, 100, 4},
		{8, 0, 2},
		{8, 150, 2},
	}
	for _, tt := range tests {
		if got := portion(tt.n, tt.pct); got != tt.want {
			t.Errorf("portion(%d, %v) = %d, want %d", tt.n, tt.pct, got, tt.want)
		}
	}
}

func TestNeighborStrategies(t *testing.T) {
	reg := NewRegistry()
	self := NewAgent("self", WithRegistry(reg), WithPosition(r2Vec(0, 0)))
	far := activeAt(reg, "far", r2Vec(300, 0), 1)
	near := activeAt(reg, "near", r2Vec(10, 0), 1)
	mid := activeAt(reg, "mid", r2Vec(0, 50), 1)
	lost := NewAgent("lost", WithRegistry(reg), WithSensor(sensor.NewReplay(testInfo, nil)))
	lost.Activate()

	candidates := reg.Eligible(self.ID())
	require.Len(t, candidates, 4)

	t.Run("all", func(t *testing.T) {
		assert.Len(t, AllNeighbors{}.Select(self, candidates), 4)
	})

	t.Run("nearest", func(t *testing.T) {
		got := NearestNeighbors{Percentage: 50}.Select(self, candidates)
		require.Len(t, got, 2)
		assert.Equal(t, near.ID(), got[0].ID())
		assert.Equal(t, mid.ID(), got[1].ID())
		all := NearestNeighbors{Percentage: 100}.Select(self, candidates)
		assert.Equal(t, lost.ID(), all[3].ID(), "agents without a position sort last")
	})

	t.Run("most confident", func(t *testing.T) {
		self.Trust().Penalize(near.ID())
		self.Trust().Penalize(mid.ID())
		self.Trust().Penalize(mid.ID())
		self.Trust().Penalize(lost.ID())
		got := MostConfidentNeighbors{Percentage: 50}.Select(self, candidates)
		require.Len(t, got, 2)
		assert.Equal(t, far.ID(), got[0].ID())
		assert.Equal(t, near.ID(), got[1].ID())
	})

	t.Run("by name", func(t *testing.T) {
		s, err := NeighborStrategyByName(StrategyNearest, 10)
		require.NoError(t, err)
		assert.Equal(t, NearestNeighbors{Percentage: 10}, s)
		_, err = NeighborStrategyByName("random", 10)
		assert.Error(t, err)
	})
}

func TestRegistryEligible(t *testing.T) {
	reg := NewRegistry()
	self := activeAt(reg, "self", r2Vec(0, 0), 1)
	running := activeAt(reg, "running", r2Vec(1, 0), 1)
	paused := activeAt(reg, "paused", r2Vec(2, 0), 1)
	paused.Pause()
	NewAgent("idle", WithRegistry(reg), WithSensor(sensor.NewReplay(testInfo, nil)))
	virtual := NewAgent("virtual", WithRegistry(reg), WithSensor(sensor.NewVirtual(testInfo)))
	virtual.Activate()

	reg.Add(running)
	assert.Equal(t, 5, reg.Len(), "duplicates are ignored")

	got := reg.Eligible(self.ID())
	require.Len(t, got, 1)
	assert.Equal(t, running.ID(), got[0].ID())

	paused.Resume()
	assert.Len(t, reg.Eligible(self.ID()), 2)

	reg.Remove(running.ID())
	_, ok := reg.Get(running.ID())
	assert.False(t, ok)
	assert.Equal(t, 4, reg.Len())
}

func TestSimilarityWeights(t *testing.T) {
	got := similarityWeights([]SimilarityScore{
		{FinalIndex: 1, Distance: 1},
		{FinalIndex: 2, Distance: 4},
		{FinalIndex: 3, Distance: domain.EmptyEntry(testInfo).Value},
	})
	assert.Equal(t, map[int]float64{1: 3, 2: 0}, got)
	assert.Empty(t, similarityWeights(nil))
}

func TestContextCooperationNeedsIndexes(t *testing.T) {
	reg := NewRegistry()
	n := activeAt(reg, "n", r2Vec(0, 0), 1)
	_, err := ContextCooperation{}.SimilarityScores(context.Background(), nil, n, linear(uuid.New(), 5, 3), nil)
	assert.ErrorIs(t, err, ErrNoContexts)
}

// cooperatingPair builds two agents that both saw a ramp up to sample 20.
func cooperatingPair(t *testing.T) (*Agent, *Agent) {
	t.Helper()
	reg := NewRegistry()
	self := activeAt(reg, "self", r2Vec(0, 0), 0)
	other := activeAt(reg, "other", r2Vec(10, 0), 0)
	self.estimator = NewWeightedDeltaEstimator(nil)
	other.estimator = NewWeightedDeltaEstimator(nil)
	for final := 5; final <= 20; final++ {
		require.NoError(t, self.Contexts().Put(linear(self.ID(), final, 5)))
		require.NoError(t, other.Contexts().Put(linear(other.ID(), final, 5)))
	}
	for i := 0; i <= 20; i++ {
		self.Perceptions().Set(i, domain.Perception{Value: float64(i)})
	}
	return self, other
}

func TestEstimateByContextualCooperation(t *testing.T) {
	self, other := cooperatingPair(t)
	self.Trust().Ledger().Modify(other.ID(), -0.5)
	l := &recordingListener{}
	self.listener = l

	last, err := self.Contexts().At(20)
	require.NoError(t, err)
	v, err := self.estimateMissingData(context.Background(), 21, last, domain.EmptyEntry(testInfo))
	require.NoError(t, err)

	assert.InDelta(t, 21, v, 1e-9)
	assert.Equal(t, ModeContexts, self.Mode())
	assert.InDelta(t, 0.6, self.Trust().Get(other.ID()), 1e-9, "agreeing neighbors gain trust")
	require.Len(t, l.imputations, 1)
	assert.InDelta(t, 21, l.imputations[0].value, 1e-9)
}

func TestEstimateByCooperationWithoutBehavior(t *testing.T) {
	self, _ := cooperatingPair(t)
	self.cooperation = nil
	last, err := self.Contexts().At(20)
	require.NoError(t, err)
	_, err = self.estimateMissingData(context.Background(), 21, last, domain.EmptyEntry(testInfo))
	assert.ErrorIs(t, err, ErrNoCooperativeBehavior)
}

func TestEstimateByCooperationSkipsSilentNeighbors(t *testing.T) {
	self, other := cooperatingPair(t)
	// a neighbor with no contexts cannot answer
	silent := activeAt(self.Registry(), "silent", r2Vec(5, 5), 0)
	last, err := self.Contexts().At(20)
	require.NoError(t, err)

	estimates := self.estimateByCooperation(context.Background(), last, domain.EmptyEntry(testInfo), []int{15, 16, 17}, 20)
	assert.Contains(t, estimates, other.ID())
	assert.NotContains(t, estimates, silent.ID())
	assert.InDelta(t, 21, estimates[other.ID()], 1e-9)
}

type estimatorFunc func(ImputeRequest) float64

func (f estimatorFunc) Impute(req ImputeRequest) float64 { return f(req) }

// keyedCooperation answers for each known neighbor with one score whose
// final index identifies it.
type keyedCooperation map[uuid.UUID]int

func (c keyedCooperation) SimilarityScores(_ context.Context, _ *Agent, n Neighbor, _ *domain.Context, _ []int) ([]SimilarityScore, error) {
	k, ok := c[n.ID()]
	if !ok {
		return nil, ErrNoContexts
	}
	return []SimilarityScore{{FinalIndex: k, Distance: 1}}, nil
}

// disagreement sets up an agent whose last value is 10 and four neighbors
// whose estimates are 11.3, 11.5, 19 and NaN.
func disagreement(t *testing.T, selfDelta float64) (*Agent, []*Agent) {
	t.Helper()
	reg := NewRegistry()
	self := activeAt(reg, "self", r2Vec(0, 0), 10)
	deltas := map[int]float64{1: 1.3, 2: 1.5, 3: 9, 4: math.NaN()}
	coop := keyedCooperation{}
	var ns []*Agent
	for k := 1; k <= 4; k++ {
		n := activeAt(reg, "n", r2Vec(float64(k), 0), 0)
		coop[n.ID()] = k
		ns = append(ns, n)
	}
	self.cooperation = coop
	self.estimator = estimatorFunc(func(req ImputeRequest) float64 {
		if req.Weights == nil {
			return selfDelta
		}
		for k := range req.Weights {
			return deltas[k]
		}
		return math.NaN()
	})
	return self, ns
}

func TestEstimateWithDisagreeingNeighbors(t *testing.T) {
	self, ns := disagreement(t, 1)
	self.Trust().Ledger().Modify(ns[0].ID(), -0.5)
	l := &recordingListener{}
	self.listener = l

	v, err := self.estimateMissingData(context.Background(), 13, ctxOf(self.ID(), 12, 8, 9, 10), domain.EmptyEntry(testInfo))
	require.NoError(t, err)

	// the bin around the own estimate of 11 holds 11, 11.3 and 11.5
	assert.InDelta(t, 33.8/3, v, 1e-9)
	assert.NotEqual(t, 11.0, v)
	assert.Equal(t, ModeContexts, self.Mode())
	require.Len(t, l.imputations, 1)
	assert.InDelta(t, 33.8/3, l.imputations[0].value, 1e-9)

	assert.InDelta(t, 0.6, self.Trust().Get(ns[0].ID()), 1e-9)
	assert.Equal(t, 1.0, self.Trust().Get(ns[1].ID()))
	assert.InDelta(t, 0.9, self.Trust().Get(ns[2].ID()), 1e-9, "outlier")
	assert.InDelta(t, 0.9, self.Trust().Get(ns[3].ID()), 1e-9, "non-finite answer")
}

func TestEstimateWithoutOwnEstimateUsesFullestBin(t *testing.T) {
	self, ns := disagreement(t, math.NaN())

	v, err := self.estimateMissingData(context.Background(), 13, ctxOf(self.ID(), 12, 8, 9, 10), domain.EmptyEntry(testInfo))
	require.NoError(t, err)
	assert.InDelta(t, 11.4, v, 1e-9)
	assert.Equal(t, ModeContexts, self.Mode())
	assert.InDelta(t, 0.9, self.Trust().Get(ns[2].ID()), 1e-9)
	assert.InDelta(t, 0.9, self.Trust().Get(ns[3].ID()), 1e-9)
}

func TestEstimateFallsBackToNeighborsWhenContextsFail(t *testing.T) {
	reg := NewRegistry()
	self := activeAt(reg, "self", r2Vec(0, 0), 10)
	self.cooperation = keyedCooperation{}
	self.estimator = estimatorFunc(func(ImputeRequest) float64 { return math.NaN() })
	n := activeAt(reg, "n", r2Vec(10, 0), 0)
	n.lastContext = ctxOf(n.ID(), 5, 30, 34)

	v, err := self.estimateMissingData(context.Background(), 13, ctxOf(self.ID(), 12, 8, 9, 10), domain.EmptyEntry(testInfo))
	require.NoError(t, err)
	assert.Equal(t, 32.0, v)
	assert.Equal(t, ModeNeighbors, self.Mode())
}

func TestEstimateWithInvalidLastContextUsesNeighbors(t *testing.T) {
	reg := NewRegistry()
	self := activeAt(reg, "self", r2Vec(0, 0), 10)
	self.estimator = NewWeightedDeltaEstimator(nil)
	n := activeAt(reg, "n", r2Vec(10, 0), 0)
	n.lastContext = ctxOf(n.ID(), 5, 30, 34)

	last := ctxOf(self.ID(), 12, 8, 9)
	last.AppendForce(domain.EmptyEntry(testInfo))
	v, err := self.estimateMissingData(context.Background(), 13, last, domain.EmptyEntry(testInfo))
	require.NoError(t, err)
	assert.Equal(t, 32.0, v)
	assert.Equal(t, ModeNeighbors, self.Mode())
}
