package codeindex

import (
	"errors"
	"fmt"

	"github.com/hupe1980/codeindex/index"
)

var (
	// ErrAlreadyPopulated is returned by Populate on a result set that is
	// populating or populated.
	ErrAlreadyPopulated = errors.New("result set already populated")

	// ErrCancelled is returned by Populate when the search was cancelled
	// before all candidates were verified. Results delivered up to that
	// point remain available.
	ErrCancelled = errors.New("search cancelled")

	// ErrClosed is returned when using a closed result set.
	ErrClosed = errors.New("result set closed")

	// ErrInvalidIndex is returned when an index image fails validation.
	ErrInvalidIndex = index.ErrInvalidData
)

// OpenError reports an index that could not be opened.
//
// The underlying error can be accessed via errors.Unwrap.
type OpenError struct {
	Path  string
	cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open index %s: %v", e.Path, e.cause)
}

func (e *OpenError) Unwrap() error { return e.cause }
