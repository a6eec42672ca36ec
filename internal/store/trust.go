package store

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

const (
	DefaultTrust = 1.0
	MinTrust     = 0.0
	MaxTrust     = 1.0
)

// TrustLedger holds how much an agent trusts each neighbor. Unknown
// neighbors are fully trusted.
type TrustLedger struct {
	mu     sync.RWMutex
	scores map[uuid.UUID]float64
}

func NewTrustLedger() *TrustLedger {
	return &TrustLedger{scores: make(map[uuid.UUID]float64)}
}

func (l *TrustLedger) Get(id uuid.UUID) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if v, ok := l.scores[id]; ok {
		return v
	}
	return DefaultTrust
}

// Modify applies delta and returns the previous and new scores.
func (l *TrustLedger) Modify(id uuid.UUID, delta float64) (float64, float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	old, ok := l.scores[id]
	if !ok {
		old = DefaultTrust
	}
	v := clampTrust(old + delta)
	l.scores[id] = v
	return old, v
}

func (l *TrustLedger) Snapshot() map[uuid.UUID]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[uuid.UUID]float64, len(l.scores))
	for k, v := range l.scores {
		out[k] = v
	}
	return out
}

// MostTrusted orders ids by descending trust, keeping the input order on ties,
// and returns the first k.
func (l *TrustLedger) MostTrusted(ids []uuid.UUID, k int) []uuid.UUID {
	l.mu.RLock()
	scores := make([]float64, len(ids))
	for i, id := range ids {
		v, ok := l.scores[id]
		if !ok {
			v = DefaultTrust
		}
		scores[i] = v
	}
	l.mu.RUnlock()

	idx := make([]int, len(ids))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	if k > len(ids) || k < 0 {
		k = len(ids)
	}
	out := make([]uuid.UUID, k)
	for i := 0; i < k; i++ {
		out[i] = ids[idx[i]]
	}
	return out
}

func clampTrust(v float64) float64 {
	if v < MinTrust {
		return MinTrust
	}
	if v > MaxTrust {
		return MaxTrust
	}
	return v
}
