package database

import (
	"errors"
	"fmt"
)

// Error kinds reported by the store, the match engine and the recognition services.
// Callers check them with errors.Is.
var (
	// ErrInvalidInput is returned for missing or malformed caller-supplied fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch is returned when two vectors of different length are compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyStore is returned when identification runs against a collection with no entries.
	ErrEmptyStore = errors.New("no faces enrolled")

	// ErrCorruptState is returned when the persisted collection exists but cannot be parsed.
	ErrCorruptState = errors.New("corrupt persisted collection")

	// ErrExtractionFailed is returned when the embedding extractor could not produce a vector.
	ErrExtractionFailed = errors.New("embedding extraction failed")
)

// DimensionError reports an embedding whose length differs from the expected one.
// Kind is the error kind it unwraps to (ErrInvalidInput for caller input,
// ErrDimensionMismatch for vector math, ErrCorruptState for persisted data).
type DimensionError struct {
	Expected int
	Actual   int
	Kind     error
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v: expected %d dimensions, got %d", e.Kind, e.Expected, e.Actual)
}

func (e *DimensionError) Unwrap() error { return e.Kind }

// corruptf wraps a formatted message in ErrCorruptState.
func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptState, fmt.Sprintf(format, args...))
}
