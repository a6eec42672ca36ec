package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FailureHandler is called on the agent's goroutine when its sensor fails.
// The current cycle is aborted afterwards.
type FailureHandler interface {
	OnFailure(ctx context.Context, a *Agent, err error, s domain.Sensor)
}

type FailureHandlerFunc func(ctx context.Context, a *Agent, err error, s domain.Sensor)

func (f FailureHandlerFunc) OnFailure(ctx context.Context, a *Agent, err error, s domain.Sensor) {
	f(ctx, a, err, s)
}

// StopOnEndOfData stops the agent once its samples run out.
type StopOnEndOfData struct{}

func (StopOnEndOfData) OnFailure(_ context.Context, a *Agent, err error, _ domain.Sensor) {
	if errors.Is(err, domain.ErrEndOfData) {
		a.logger.Info("end of data", zap.Int("samples", a.perceptions.Len()))
		a.Stop()
		return
	}
	a.logger.Warn("sensor failure", zap.Error(err))
}

// GapMasker is implemented by sensors that can hide samples.
type GapMasker interface {
	SetMask(mask []bool)
}

type Phase int

const (
	PhaseTraining Phase = iota
	PhaseTesting
	PhaseTestingWithBestAgents
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseTraining:
		return "training"
	case PhaseTesting:
		return "testing"
	case PhaseTestingWithBestAgents:
		return "testing_with_best_agents"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// TrainThenEvaluate replays the samples twice: first fully observed with the
// oracle available, then with the gaps of MaskFor hidden. With BestAgents set
// it replays a third time cooperating only with its most trusted neighbors
// and without updating trust. The agent stops after the last pass.
type TrainThenEvaluate struct {
	MaskFor    func(id uuid.UUID) []bool
	BestAgents bool
	Percentage float64

	mu     sync.Mutex
	phases map[uuid.UUID]Phase
}

func NewTrainThenEvaluate(maskFor func(id uuid.UUID) []bool) *TrainThenEvaluate {
	return &TrainThenEvaluate{
		MaskFor:    maskFor,
		Percentage: DefaultNeighborPercentage,
		phases:     make(map[uuid.UUID]Phase),
	}
}

func (h *TrainThenEvaluate) Phase(id uuid.UUID) Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phases[id]
}

func (h *TrainThenEvaluate) OnFailure(_ context.Context, a *Agent, err error, s domain.Sensor) {
	if !errors.Is(err, domain.ErrEndOfData) {
		a.logger.Warn("sensor failure", zap.Error(err))
		return
	}

	h.mu.Lock()
	phase := h.phases[a.ID()]
	next := PhaseDone
	switch phase {
	case PhaseTraining:
		next = PhaseTesting
	case PhaseTesting:
		if h.BestAgents {
			next = PhaseTestingWithBestAgents
		}
	}
	h.phases[a.ID()] = next
	h.mu.Unlock()

	a.logger.Info("switching phase", zap.Stringer("from", phase), zap.Stringer("to", next))

	switch next {
	case PhaseTesting:
		s.ResetIndex()
		if m, ok := s.(GapMasker); ok && h.MaskFor != nil {
			m.SetMask(h.MaskFor(a.ID()))
		}
		a.DisableOracle()
	case PhaseTestingWithBestAgents:
		s.ResetIndex()
		a.SetNeighborStrategy(MostConfidentNeighbors{Percentage: h.Percentage})
		a.Trust().Frozen = true
	default:
		a.Stop()
	}
}
