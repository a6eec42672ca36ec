package domain

import "github.com/google/uuid"

// Sensor supplies one reading per sample index.
//
// CurrentData(offset) returns the value at CurrentSampleIndex()-offset, so a
// negative offset looks ahead. ReceiveData returns ErrEndOfData once the
// samples are exhausted.
type Sensor interface {
	ID() uuid.UUID
	ReceiveData() (ContextEntry, error)
	NextSample()
	CurrentSampleIndex() int
	SamplesCount() int
	CurrentData(offset int) (float64, error)
	ObservedData() []ContextEntry
	ResetIndex()
	SupportedInfo() InfoType
	// Real is false for sensors with no physical backing.
	Real() bool
}

// EstimationSink receives estimates for sensors that cannot observe.
type EstimationSink interface {
	SetEstimation(value float64, idx int)
}

// Oracle gives access to the true next value. Only training and evaluation
// harnesses provide one.
type Oracle interface {
	NextValue() (float64, error)
}
