// Package sensor provides in-memory sensors for agents.
package sensor

import (
	"fmt"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
)

// Replay plays back a recorded series. Samples hidden by the mask are
// delivered as empty entries but stay readable through CurrentData.
type Replay struct {
	mu       sync.RWMutex
	id       uuid.UUID
	info     domain.InfoType
	data     []float64
	mask     []bool
	idx      int
	observed []domain.ContextEntry
}

func NewReplay(info domain.InfoType, data []float64) *Replay {
	return &Replay{
		id:   uuid.New(),
		info: info,
		data: append([]float64(nil), data...),
	}
}

func (r *Replay) ID() uuid.UUID { return r.id }
func (r *Replay) SupportedInfo() domain.InfoType { return r.info }
func (r *Replay) Real() bool { return true }
func (r *Replay) SamplesCount() int { return len(r.data) }

func (r *Replay) ReceiveData() (domain.ContextEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx >= len(r.data) {
		return domain.ContextEntry{}, domain.ErrEndOfData
	}
	e := domain.NewEntry(r.info, r.data[r.idx])
	if r.hidden(r.idx) {
		e = domain.EmptyEntry(r.info)
	}
	r.observed = append(r.observed, e)
	return e, nil
}

func (r *Replay) hidden(idx int) bool {
	return idx < len(r.mask) && r.mask[idx]
}

func (r *Replay) NextSample() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx++
}

func (r *Replay) CurrentSampleIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx
}

func (r *Replay) CurrentData(offset int) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.idx - offset
	if i < 0 || i >= len(r.data) {
		return 0, fmt.Errorf("sample %d: %w", i, domain.ErrNoSample)
	}
	return r.data[i], nil
}

// NextValue reads the recorded value of the following sample.
func (r *Replay) NextValue() (float64, error) {
	return r.CurrentData(-1)
}

func (r *Replay) ObservedData() []domain.ContextEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ContextEntry(nil), r.observed...)
}

func (r *Replay) ResetIndex() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = 0
	r.observed = nil
}

// SetMask hides every sample whose mask entry is true.
func (r *Replay) SetMask(mask []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mask = append([]bool(nil), mask...)
}
