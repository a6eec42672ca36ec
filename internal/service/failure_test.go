package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/sensor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopOnEndOfData(t *testing.T) {
	a := NewAgent("a")
	StopOnEndOfData{}.OnFailure(context.Background(), a, errors.New("flaky"), nil)
	assert.False(t, a.isStopped())

	StopOnEndOfData{}.OnFailure(context.Background(), a, domain.ErrEndOfData, nil)
	assert.True(t, a.isStopped())
}

func TestTrainThenEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		bestAgents bool
		passes     int
	}{
		{"train and test", false, 2},
		{"with best agents", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sensor.NewReplay(testInfo, ramp(16))
			mask := make([]bool, 16)
			mask[13] = true

			h := NewTrainThenEvaluate(func(uuid.UUID) []bool { return mask })
			h.BestAgents = tt.bestAgents
			l := &recordingListener{}
			a := NewAgent("trainee",
				WithSensor(src),
				WithOracle(src),
				WithEstimator(NewWeightedDeltaEstimator(nil)),
				WithFailureHandler(h),
				WithListener(l),
			)
			runToEnd(t, a)

			assert.Equal(t, PhaseDone, h.Phase(a.ID()))
			assert.Nil(t, a.currentOracle())
			// the gap is only hidden after training
			require.Len(t, l.imputations, tt.passes-1)
			for _, imp := range l.imputations {
				assert.InDelta(t, 13, imp.value, 1e-9)
				assert.Equal(t, 13.0, imp.trueValue)
			}
			assert.Equal(t, tt.bestAgents, a.Trust().Frozen)
			if tt.bestAgents {
				assert.IsType(t, MostConfidentNeighbors{}, a.neighborStrategy())
			}
		})
	}
}

func TestTrainThenEvaluateIgnoresOtherFailures(t *testing.T) {
	h := NewTrainThenEvaluate(nil)
	a := NewAgent("a")
	h.OnFailure(context.Background(), a, errors.New("flaky"), nil)
	assert.Equal(t, PhaseTraining, h.Phase(a.ID()))
	assert.False(t, a.isStopped())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "training", PhaseTraining.String())
	assert.Equal(t, "testing_with_best_agents", PhaseTestingWithBestAgents.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
