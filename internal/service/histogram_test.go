package service

import (
	"math"
	"testing"

	"github.com/Harshitk-cp/ambient/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHistogram(t *testing.T) {
	hist := Histogram([]float64{8, 9, 9.5, 20, 21, math.NaN(), math.Inf(1)}, 5)
	require.Len(t, hist, 5)

	assert.Equal(t, []float64{8, 9, 9.5}, hist[0].Values)
	assert.InDelta(t, 8.8333, hist[0].Mean, 1e-4)
	assert.Equal(t, 8.0, hist[0].Min)
	assert.Equal(t, 9.5, hist[0].Max)
	for i := 1; i < 4; i++ {
		assert.Equal(t, 0, hist[i].Count(), "bin %d", i)
		assert.True(t, math.IsNaN(hist[i].Mean))
	}
	assert.Equal(t, []float64{20, 21}, hist[4].Values)

	t.Run("single value", func(t *testing.T) {
		hist := Histogram([]float64{3, 3, 3}, 4)
		assert.Equal(t, 3, hist[0].Count())
		assert.Equal(t, 3.0, hist[0].Mean)
	})

	t.Run("default bins", func(t *testing.T) {
		assert.Len(t, Histogram(nil, 0), DefaultHistogramBins)
	})
}

func TestConsensus(t *testing.T) {
	bin, ok := Consensus([]float64{8, 9, 9.5, 20, 21}, 9.3, 5)
	require.True(t, ok)
	assert.InDelta(t, 8.8333, bin.Mean, 1e-4)

	bin, ok = Consensus([]float64{8, 9, 9.5, 20, 21}, 19, 5)
	require.True(t, ok)
	assert.Equal(t, 20.5, bin.Mean)

	_, ok = Consensus([]float64{math.NaN()}, 1, 5)
	assert.False(t, ok)
}

func TestFullest(t *testing.T) {
	bin, ok := Fullest([]float64{8, 20, 21, 20.5, math.NaN()}, 5)
	require.True(t, ok)
	assert.Equal(t, []float64{20, 21, 20.5}, bin.Values)

	bin, ok = Fullest([]float64{1, 5}, 5)
	require.True(t, ok)
	assert.Equal(t, 1.0, bin.Mean, "earlier bins win ties")

	_, ok = Fullest(nil, 5)
	assert.False(t, ok)
}

func TestTrustServiceAdapt(t *testing.T) {
	svc := NewTrustService(store.NewTrustLedger(), zap.NewNop())
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	estimates := map[uuid.UUID]float64{a: 9, b: 9.5, c: 20, d: 21}

	bin, ok := Consensus([]float64{8, 9, 9.5, 20, 21}, 9.3, 5)
	require.True(t, ok)
	svc.Adapt(estimates, bin)

	assert.Equal(t, 1.0, svc.Get(a))
	assert.Equal(t, 1.0, svc.Get(b))
	assert.InDelta(t, 0.9, svc.Get(c), 1e-9)
	assert.InDelta(t, 0.9, svc.Get(d), 1e-9)

	t.Run("frozen", func(t *testing.T) {
		svc.Frozen = true
		defer func() { svc.Frozen = false }()
		svc.Adapt(estimates, bin)
		assert.InDelta(t, 0.9, svc.Get(c), 1e-9)
	})

	t.Run("penalize clamps at zero", func(t *testing.T) {
		svc.Delta = 0.6
		svc.Penalize(a)
		assert.Equal(t, 0.0, svc.Penalize(a))
		assert.InDelta(t, 0.6, svc.Reinforce(a), 1e-9)
	})
}
