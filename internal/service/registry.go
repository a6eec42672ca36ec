package service

import (
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// SimilarityScore is a neighbor's distance between its context at the
// requested time and its context at FinalIndex.
type SimilarityScore struct {
	FinalIndex int
	Distance   float64
}

// Neighbor is the read-only face an agent shows to the others. Every method
// returns copies.
type Neighbor interface {
	ID() uuid.UUID
	Name() string
	IsActive() bool
	IsPaused() bool
	IsRealSensor() bool
	Position() (r2.Vec, bool)
	LastContext() (*domain.Context, bool)
	LastPerception() (domain.Perception, bool)
	SimilarityScores(ref *domain.Context, idxs []int) ([]SimilarityScore, error)
}

// Registry lists the agents that can cooperate with each other.
type Registry struct {
	mu    sync.RWMutex
	order []Neighbor
	byID  map[uuid.UUID]Neighbor
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[uuid.UUID]Neighbor)}
}

func (r *Registry) Add(n Neighbor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[n.ID()]; ok {
		return
	}
	r.byID[n.ID()] = n
	r.order = append(r.order, n)
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, n := range r.order {
		if n.ID() == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Get(id uuid.UUID) (Neighbor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	return n, ok
}

// Agents returns the registered agents in registration order.
func (r *Registry) Agents() []Neighbor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Neighbor, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Eligible returns the active, running, real-sensor agents other than self.
func (r *Registry) Eligible(self uuid.UUID) []Neighbor {
	var out []Neighbor
	for _, n := range r.Agents() {
		if n.ID() == self || !n.IsRealSensor() || !n.IsActive() || n.IsPaused() {
			continue
		}
		out = append(out, n)
	}
	return out
}
