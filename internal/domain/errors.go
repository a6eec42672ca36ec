package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInformation = errors.New("missing information")
	ErrEndOfData          = errors.New("end of data")
	ErrSensorOff          = errors.New("sensor off")
	ErrNoSample           = errors.New("no sample at offset")
)

// MissingInformationError is returned when empty entries are appended to a
// context. The entries are kept in the context; the error lists them.
type MissingInformationError struct {
	Info    InfoType
	Entries []ContextEntry
}

func (e *MissingInformationError) Error() string {
	return fmt.Sprintf("missing information: %d empty %s entries", len(e.Entries), e.Info)
}

func (e *MissingInformationError) Unwrap() error {
	return ErrMissingInformation
}
