package sensor

import (
	"fmt"
	"math"
	"sync"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/google/uuid"
)

// Virtual never observes anything. Its values are the estimates its agent
// writes back.
type Virtual struct {
	mu     sync.RWMutex
	id     uuid.UUID
	info   domain.InfoType
	values []float64
	idx    int
}

func NewVirtual(info domain.InfoType) *Virtual {
	return &Virtual{id: uuid.New(), info: info}
}

func (v *Virtual) ID() uuid.UUID { return v.id }
func (v *Virtual) SupportedInfo() domain.InfoType { return v.info }
func (v *Virtual) Real() bool { return false }
func (v *Virtual) SamplesCount() int { return math.MaxInt }

func (v *Virtual) ReceiveData() (domain.ContextEntry, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.grow(v.idx)
	return domain.EmptyEntry(v.info), nil
}

func (v *Virtual) grow(idx int) {
	for len(v.values) <= idx {
		v.values = append(v.values, math.Inf(1))
	}
}

func (v *Virtual) SetEstimation(value float64, idx int) {
	if idx < 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.grow(idx)
	v.values[idx] = value
}

func (v *Virtual) NextSample() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.idx++
}

func (v *Virtual) CurrentSampleIndex() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.idx
}

func (v *Virtual) CurrentData(offset int) (float64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	i := v.idx - offset
	if i < 0 || i >= len(v.values) {
		return 0, fmt.Errorf("sample %d: %w", i, domain.ErrNoSample)
	}
	return v.values[i], nil
}

func (v *Virtual) ObservedData() []domain.ContextEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]domain.ContextEntry, len(v.values))
	for i, x := range v.values {
		out[i] = domain.ContextEntry{Info: v.info, Value: x, Estimated: domain.IsFinite(x)}
	}
	return out
}

func (v *Virtual) ResetIndex() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.idx = 0
}

func (v *Virtual) Values() []float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]float64(nil), v.values...)
}
