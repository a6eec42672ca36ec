package store

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyContext = errors.New("empty context")
	ErrGap          = errors.New("context has a missing entry")
)
