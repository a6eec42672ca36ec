package store

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
)

type bucket struct {
	descriptor domain.Descriptor
	contexts   []*domain.Context
}

// ContextStore indexes an agent's contexts by descriptor. Everything handed
// in or out is a copy.
type ContextStore struct {
	mu      sync.RWMutex
	buckets []*bucket
	order   []*domain.Context
	byIndex map[int]*domain.Context
	promote bool
}

// NewContextStore keeps buckets sorted by estimated-entry count when promote
// is set, so observed contexts are reached first.
func NewContextStore(promote bool) *ContextStore {
	return &ContextStore{
		byIndex: make(map[int]*domain.Context),
		promote: promote,
	}
}

// Put stores a copy of c. Contexts with a missing entry are refused.
func (s *ContextStore) Put(c *domain.Context) error {
	if c == nil || c.IsEmpty() {
		return ErrEmptyContext
	}
	if !c.IsValid() {
		return fmt.Errorf("context ending at %d: %w", c.FinalIndex(), ErrGap)
	}
	c = c.Clone()
	d := c.Descriptor()

	s.mu.Lock()
	defer s.mu.Unlock()

	var target *bucket
	for _, b := range s.buckets {
		if d.IncludedIn(b.descriptor) {
			target = b
			break
		}
	}
	if target == nil {
		target = &bucket{descriptor: d}
		s.buckets = append(s.buckets, target)
	}
	target.contexts = append(target.contexts, c)
	if s.promote {
		sort.SliceStable(target.contexts, func(i, j int) bool {
			return target.contexts[i].EstimatedCount() < target.contexts[j].EstimatedCount()
		})
	}

	s.order = append(s.order, c)
	s.byIndex[c.FinalIndex()] = c
	return nil
}

// MostSimilar returns up to n contexts of the same size as ref, drawn from the
// buckets nearest to ref's descriptor. ref itself is never returned; with
// promote set, contexts holding estimated entries are skipped.
func (s *ContextStore) MostSimilar(n int, ref *domain.Context, promote bool) []*domain.Context {
	if n <= 0 || ref == nil {
		return nil
	}
	d := ref.Descriptor()

	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		b    *bucket
		dist float64
	}
	rs := make([]ranked, len(s.buckets))
	for i, b := range s.buckets {
		rs[i] = ranked{b: b, dist: d.Distance(b.descriptor)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		di, dj := rs[i].dist, rs[j].dist
		if math.IsNaN(di) {
			return false
		}
		if math.IsNaN(dj) {
			return true
		}
		return di < dj
	})

	out := make([]*domain.Context, 0, n)
	for _, r := range rs {
		for _, c := range r.b.contexts {
			if c.Size() != ref.Size() || c.Equal(ref) {
				continue
			}
			if promote && c.EstimatedCount() > 0 {
				continue
			}
			out = append(out, c.Clone())
			if len(out) == n {
				return out
			}
		}
	}
	return out
}

// Select returns copies of the contexts matching keep, in bucket order.
func (s *ContextStore) Select(keep func(*domain.Context) bool) []*domain.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Context
	for _, b := range s.buckets {
		for _, c := range b.contexts {
			if keep(c) {
				out = append(out, c.Clone())
			}
		}
	}
	return out
}

// At returns the latest context stored with the given final index.
func (s *ContextStore) At(finalIndex int) (*domain.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byIndex[finalIndex]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// All returns every stored context in insertion order.
func (s *ContextStore) All() []*domain.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Context, len(s.order))
	for i, c := range s.order {
		out[i] = c.Clone()
	}
	return out
}

func (s *ContextStore) FinalIndexes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.byIndex))
	for idx := range s.byIndex {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (s *ContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *ContextStore) Descriptors() []domain.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Descriptor, len(s.buckets))
	for i, b := range s.buckets {
		out[i] = b.descriptor.Clone()
	}
	return out
}
