package service

import (
	"math"
	"testing"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/similarity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightedDeltaEstimator(t *testing.T) {
	self := uuid.New()
	ref := ctxOf(self, 10, 5, 6)
	candidates := []*domain.Context{
		ctxOf(self, 1, 1, 2), // delta +1
		ctxOf(self, 2, 3, 2), // delta -1
		ctxOf(self, 3, 4, 4), // delta 0
	}
	// distance grows with the final index: 1, 2, 3
	cmp := similarity.ComparatorFunc(func(_, b *domain.Context) float64 {
		return float64(b.FinalIndex())
	})
	est := NewWeightedDeltaEstimator(cmp)

	t.Run("weights from distances", func(t *testing.T) {
		got := est.Impute(ImputeRequest{
			Self:      self,
			Contexts:  map[uuid.UUID][]*domain.Context{self: candidates},
			Reference: ref,
			Missing:   domain.EmptyEntry(testInfo),
		})
		assert.InDelta(t, 1.0/3.0, got, 1e-9)
	})

	t.Run("external weights", func(t *testing.T) {
		got := est.Impute(ImputeRequest{
			Self:      self,
			Contexts:  map[uuid.UUID][]*domain.Context{self: candidates},
			Reference: ref,
			Weights:   map[int]float64{1: 1, 2: 3},
		})
		assert.InDelta(t, -0.5, got, 1e-9)
	})

	t.Run("no candidates falls back to the reference delta", func(t *testing.T) {
		got := est.Impute(ImputeRequest{Self: self, Reference: ref})
		assert.Equal(t, 1.0, got)
	})

	t.Run("equal distances fall back", func(t *testing.T) {
		flat := NewWeightedDeltaEstimator(similarity.ComparatorFunc(func(_, _ *domain.Context) float64 { return 2 }))
		got := flat.Impute(ImputeRequest{
			Self:      self,
			Contexts:  map[uuid.UUID][]*domain.Context{self: candidates},
			Reference: ref,
		})
		assert.Equal(t, 1.0, got)
	})

	t.Run("reference is never its own candidate", func(t *testing.T) {
		got := est.Impute(ImputeRequest{
			Self:      self,
			Contexts:  map[uuid.UUID][]*domain.Context{self: {ref.Clone(), ctxOf(self, 2, 3, 2)}},
			Reference: ref,
		})
		// the single remaining candidate has the largest distance, so no weight
		assert.Equal(t, 1.0, got)
	})

	t.Run("nil reference", func(t *testing.T) {
		assert.True(t, math.IsNaN(est.Impute(ImputeRequest{Self: self})))
	})
}

func TestWeightedDeltaEstimatorDeterministic(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ref := linear(a, 20, 4)
	req := ImputeRequest{
		Self: a,
		Contexts: map[uuid.UUID][]*domain.Context{
			a: {linear(a, 10, 4), ctxOf(a, 12, 1, 3, 2, 5)},
			b: {ctxOf(b, 11, 2, 2, 2, 4), linear(b, 15, 4)},
		},
		Reference: ref,
	}
	est := NewWeightedDeltaEstimator(nil)
	first := est.Impute(req)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, est.Impute(req))
	}
}

func TestVariationEstimator(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ref := ctxOf(a, 30, 0, 1)

	estimated := domain.NewContext(b, testInfo).WithFinalIndex(9)
	estimated.AppendForce(domain.NewEntry(testInfo, 0), domain.NewEntry(testInfo, 0).WithValue(50, true))

	got := VariationEstimator{}.Impute(ImputeRequest{
		Self: a,
		Contexts: map[uuid.UUID][]*domain.Context{
			a: {ctxOf(a, 1, 0, 1), ctxOf(a, 2, 1, 4)}, // mean 2
			b: {ctxOf(b, 3, 5, 3), estimated},         // mean -2, estimated skipped
		},
		Reference: ref,
	})
	assert.InDelta(t, 0.0, got, 1e-9)

	t.Run("falls back to the reference delta", func(t *testing.T) {
		got := VariationEstimator{}.Impute(ImputeRequest{Self: a, Reference: ref})
		assert.Equal(t, 1.0, got)
	})

	t.Run("weights restrict the candidates", func(t *testing.T) {
		got := VariationEstimator{}.Impute(ImputeRequest{
			Self:      a,
			Contexts:  map[uuid.UUID][]*domain.Context{a: {ctxOf(a, 1, 0, 1), ctxOf(a, 2, 1, 4)}},
			Reference: ref,
			Weights:   map[int]float64{2: 1},
		})
		assert.Equal(t, 3.0, got)
	})
}

func TestEstimatorByName(t *testing.T) {
	tests := []struct {
		name    string
		want    Estimator
		wantErr bool
	}{
		{"", &WeightedDeltaEstimator{}, false},
		{EstimatorWeightedDelta, &WeightedDeltaEstimator{}, false},
		{EstimatorVariation, VariationEstimator{}, false},
		{"median", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimatorByName(tt.name, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}
