package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the loaders. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when an input path does not exist.
	ErrNotFound = errors.New("input file not found")

	// ErrIO is returned for any other failure reading an input path.
	ErrIO = errors.New("input read failure")
)

// LoadError records which input failed and why.
type LoadError struct {
	Path string
	Kind error // ErrNotFound or ErrIO
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(path string, err error) error {
	return &LoadError{Path: path, Kind: ErrNotFound, Err: err}
}

func ioFailure(path string, err error) error {
	return &LoadError{Path: path, Kind: ErrIO, Err: err}
}
