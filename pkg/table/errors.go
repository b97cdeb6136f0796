package table

import "errors"

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("input file not found")
	// ErrIOFailure matches any *IOFailureError via errors.Is.
	ErrIOFailure = errors.New("output write failed")
	// ErrMissingTitle is returned when the header has no title column.
	ErrMissingTitle = errors.New(`missing required column "title"`)
)

// NotFoundError reports an input path that does not resolve to a readable file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string { return "file not found at " + e.Path + ": " + e.Err.Error() }
func (e *NotFoundError) Unwrap() error { return e.Err }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IOFailureError reports an output path that could not be written.
type IOFailureError struct {
	Path string
	Err  error
}

func (e *IOFailureError) Error() string { return "write " + e.Path + ": " + e.Err.Error() }
func (e *IOFailureError) Unwrap() error { return e.Err }
func (e *IOFailureError) Is(target error) bool { return target == ErrIOFailure }
