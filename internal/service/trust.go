package service

import (
	"github.com/Harshitk-cp/ambient/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultConfidenceDelta = 0.1

// TrustService rewards neighbors whose estimates agree with the consensus
// and penalizes the rest.
type TrustService struct {
	ledger *store.TrustLedger
	logger *zap.Logger

	Delta  float64
	Frozen bool
}

func NewTrustService(ledger *store.TrustLedger, logger *zap.Logger) *TrustService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrustService{ledger: ledger, logger: logger, Delta: DefaultConfidenceDelta}
}

func (s *TrustService) Reinforce(id uuid.UUID) float64 {
	old, v := s.ledger.Modify(id, s.Delta)
	s.logger.Debug("reinforcing neighbor",
		zap.String("neighbor_id", id.String()),
		zap.Float64("old_trust", old),
		zap.Float64("new_trust", v),
	)
	return v
}

func (s *TrustService) Penalize(id uuid.UUID) float64 {
	old, v := s.ledger.Modify(id, -s.Delta)
	s.logger.Debug("penalizing neighbor",
		zap.String("neighbor_id", id.String()),
		zap.Float64("old_trust", old),
		zap.Float64("new_trust", v),
	)
	return v
}

// Adapt updates every neighbor in estimates against the chosen bin.
func (s *TrustService) Adapt(estimates map[uuid.UUID]float64, chosen Bin) {
	if s.Frozen {
		return
	}
	for id, v := range estimates {
		if chosen.Contains(v) {
			s.Reinforce(id)
		} else {
			s.Penalize(id)
		}
	}
}

func (s *TrustService) Get(id uuid.UUID) float64 {
	return s.ledger.Get(id)
}

func (s *TrustService) Ledger() *store.TrustLedger {
	return s.ledger
}
