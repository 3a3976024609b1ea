package specembed

import (
	"errors"
	"fmt"
)

// Sentinel errors for spec embedding and recovery.
var (
	// ErrMarkerNotFound indicates the build descriptor has no line carrying the label marker.
	ErrMarkerNotFound = errors.New("label marker not found")
	// ErrSourceRead indicates the spec file could not be read.
	ErrSourceRead = errors.New("spec file unreadable")
	// ErrDestinationWrite indicates the build descriptor could not be written.
	ErrDestinationWrite = errors.New("build descriptor unwritable")
	// ErrMalformedBlock indicates an embedded block whose quoting or
	// continuation decoration is inconsistent.
	ErrMalformedBlock = errors.New("malformed embedded spec block")
	// ErrNoEmbeddedSpec indicates the marker is present but no block follows it.
	ErrNoEmbeddedSpec = errors.New("no embedded spec after label marker")
)

// MarkerNotFoundError records which marker was missing and from which file.
type MarkerNotFoundError struct {
	Marker string
	Path   string // Empty when the document did not come from a file.
}

// Error implements the error interface.
func (e *MarkerNotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s missing from %s while inserting spec blob", e.Marker, e.Path)
	}
	return fmt.Sprintf("%s missing from document while inserting spec blob", e.Marker)
}

// Unwrap returns ErrMarkerNotFound for use with errors.Is.
func (e *MarkerNotFoundError) Unwrap() error {
	return ErrMarkerNotFound
}

// SourceReadError wraps a failure to read the spec file.
type SourceReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SourceReadError) Error() string {
	return "reading spec " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both ErrSourceRead and the underlying I/O error.
func (e *SourceReadError) Unwrap() []error {
	return []error{ErrSourceRead, e.Err}
}

// DestinationWriteError wraps a failure to persist the build descriptor.
type DestinationWriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DestinationWriteError) Error() string {
	return "writing " + e.Path + ": " + e.Err.Error()
}

// Unwrap exposes both ErrDestinationWrite and the underlying I/O error.
func (e *DestinationWriteError) Unwrap() []error {
	return []error{ErrDestinationWrite, e.Err}
}
