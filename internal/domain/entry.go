package domain

import (
	"math"
	"time"
)

// ContextEntry is a single reading inside a context. The zero value is not
// empty; use EmptyEntry for a missing reading.
type ContextEntry struct {
	Info      InfoType
	Timestamp time.Time
	Value     float64
	Estimated bool
}

func NewEntry(info InfoType, value float64) ContextEntry {
	return ContextEntry{Info: info, Timestamp: time.Now(), Value: value}
}

func EmptyEntry(info InfoType) ContextEntry {
	return ContextEntry{Info: info, Timestamp: time.Now(), Value: math.Inf(1)}
}

// IsEmpty reports whether the entry carries no usable value.
func (e ContextEntry) IsEmpty() bool {
	return !IsFinite(e.Value)
}

func (e ContextEntry) WithValue(v float64, estimated bool) ContextEntry {
	e.Value = v
	e.Estimated = estimated
	return e
}

// Perception is what an agent recorded at a sample index.
type Perception struct {
	Value     float64
	Estimated bool
}

func (p Perception) IsEmpty() bool {
	return !IsFinite(p.Value)
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
