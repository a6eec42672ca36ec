package store

import (
	"math"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
)

// PerceptionLog records what an agent perceived at each sample index.
type PerceptionLog struct {
	mu    sync.RWMutex
	items []domain.Perception
	set   []bool
	last  int
}

func NewPerceptionLog() *PerceptionLog {
	return &PerceptionLog{last: -1}
}

func (l *PerceptionLog) Set(idx int, p domain.Perception) {
	if idx < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.items) <= idx {
		l.items = append(l.items, domain.Perception{Value: math.NaN()})
		l.set = append(l.set, false)
	}
	l.items[idx] = p
	l.set[idx] = true
	l.last = idx
}

func (l *PerceptionLog) At(idx int) (domain.Perception, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if idx < 0 || idx >= len(l.items) || !l.set[idx] {
		return domain.Perception{}, false
	}
	return l.items[idx], true
}

// Last returns the most recently recorded perception, which after a replay
// restarts is not the one with the highest index.
func (l *PerceptionLog) Last() (int, domain.Perception, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.last < 0 {
		return -1, domain.Perception{}, false
	}
	return l.last, l.items[l.last], true
}

func (l *PerceptionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, ok := range l.set {
		if ok {
			n++
		}
	}
	return n
}

// Snapshot maps every recorded index to its perception.
func (l *PerceptionLog) Snapshot() map[int]domain.Perception {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int]domain.Perception)
	for i, ok := range l.set {
		if ok {
			out[i] = l.items[i]
		}
	}
	return out
}

// Values returns the recorded values in index order, NaN for gaps.
func (l *PerceptionLog) Values() []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]float64, len(l.items))
	for i, p := range l.items {
		if l.set[i] {
			out[i] = p.Value
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
